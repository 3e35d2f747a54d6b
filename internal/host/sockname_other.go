//go:build !unix

package host

import "fmt"

func FamilyName(family uint32) string {
	return fmt.Sprintf("AF_%d", family)
}

func SocketTypeName(typ uint32) string {
	return fmt.Sprintf("SOCK_%d", typ)
}
