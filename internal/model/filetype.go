package model

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType is a coarse classification of file contents
type FileType uint8

const (
	FileTypeUnknown FileType = iota
	FileTypeText
	FileTypeBinary
	FileTypeImage
)

func (t FileType) String() string {
	switch t {
	case FileTypeText:
		return "text"
	case FileTypeBinary:
		return "binary"
	case FileTypeImage:
		return "image"
	default:
		return ""
	}
}

// DetectFileType sniffs the file's magic numbers. It reads the file, so
// callers should only use it for the entry on screen.
func DetectFileType(path string) (FileType, string) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return FileTypeUnknown, ""
	}

	ext := strings.ToUpper(strings.TrimPrefix(mtype.Extension(), "."))

	if strings.HasPrefix(mtype.String(), "image/") {
		return FileTypeImage, ext
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return FileTypeText, ext
		}
	}
	return FileTypeBinary, ext
}
