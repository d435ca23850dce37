package security

// Content length limits per field, in characters.
const (
	MaxTitleLen    = 100
	MaxContentLen  = 50000
	MaxNameLen     = 50
	MaxEmailLen    = 254
	MaxPasswordLen = 128
	MinPasswordLen = 6
	MaxMessageLen  = 10000
	MaxTopicLen    = 100
	MaxFilenameLen = 255
	MaxTagLen      = 20
	MaxTags        = 10
)

// Request and file size limits, in bytes.
const (
	MaxRequestSize = 10 * 1024 * 1024
	MaxFileSize    = 50 * 1024 * 1024
	MaxProcessSize = 100 * 1024 * 1024
)

// AllowedFileTypes lists MIME types accepted for resource uploads.
var AllowedFileTypes = []string{
	"text/plain",
	"text/markdown",
	"text/csv",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"application/x-rar-compressed",
	"application/vnd.rar",
	"application/x-7z-compressed",
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
	"image/svg+xml",
}
