package utils

import (
	"reflect"
	"unsafe"
)

func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func S2B(s string) []byte {
	const MaxInt32 = 1<<31 - 1
	return (*[MaxInt32]byte)(unsafe.Pointer((*reflect.StringHeader)(
		unsafe.Pointer(&s)).Data))[: len(s)&MaxInt32 : len(s)&MaxInt32]
}

// CommonPrefix returns the longest prefix shared by all given names.
func CommonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, name := range names[1:] {
		n := len(prefix)
		if len(name) < n {
			n = len(name)
		}
		i := 0
		for i < n && prefix[i] == name[i] {
			i++
		}
		prefix = prefix[:i]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// CommonSuffix returns the longest suffix shared by all given names.
func CommonSuffix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	suffix := names[0]
	for _, name := range names[1:] {
		n := len(suffix)
		if len(name) < n {
			n = len(name)
		}
		i := 0
		for i < n && suffix[len(suffix)-1-i] == name[len(name)-1-i] {
			i++
		}
		suffix = suffix[len(suffix)-i:]
		if suffix == "" {
			break
		}
	}
	return suffix
}
