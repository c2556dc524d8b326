package attach

import "strings"

// Kind is the backend ingestion category of an attachment.
type Kind string

const (
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

// Default size ceilings per kind, plus the combined audio+image budget
// tracked across a whole request.
const (
	DefaultMaxAudioBytes = 35 * 1024 * 1024
	DefaultMaxImageBytes = 15 * 1024 * 1024
	DefaultMaxTextBytes  = 40 * 1024 * 1024

	DefaultMaxAudioImageTotalBytes = 80 * 1024 * 1024
)

var textMIMETypes = map[string]bool{
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/pdf":  true,
	"application/epub": true,
	"application/ppt":  true,
	"application/pptx": true,
}

var imageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/tiff": true,
	"image/bmp":  true,
}

var audioMIMETypes = map[string]bool{
	"audio/mp4":      true,
	"audio/mp3":      true,
	"audio/x-m4a":    true,
	"audio/x-wav":    true,
	"audio/wave":     true,
	"audio/wav":      true,
	"audio/x-pn-wav": true,
	"audio/webm":     true,
	"audio/x-ogg":    true,
	"audio/opus":     true,
}

var textExtensions = map[string]bool{
	"txt": true, "doc": true, "docx": true, "pdf": true,
	"epub": true, "ppt": true, "pptx": true,
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true,
	"tif": true, "tiff": true, "bmp": true,
}

var audioExtensions = map[string]bool{
	"mp4": true, "mp3": true, "m4a": true, "wav": true,
	"weba": true, "ogg": true, "opus": true,
}

// ClassifyKind determines the attachment kind from a content type, falling
// back to the filename extension when the content type is unrecognized.
func ClassifyKind(contentType, filename string) Kind {
	normalized := mainContentType(contentType)
	switch {
	case audioMIMETypes[normalized]:
		return KindAudio
	case imageMIMETypes[normalized]:
		return KindImage
	case textMIMETypes[normalized]:
		return KindText
	}

	if filename != "" {
		ext := ""
		if idx := strings.LastIndex(filename, "."); idx >= 0 {
			ext = strings.ToLower(filename[idx+1:])
		}
		switch {
		case audioExtensions[ext]:
			return KindAudio
		case imageExtensions[ext]:
			return KindImage
		case textExtensions[ext]:
			return KindText
		}
	}

	return KindUnknown
}

// mainContentType strips parameters and normalizes a Content-Type value.
func mainContentType(contentType string) string {
	main, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(main))
}
