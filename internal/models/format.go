package models

import (
	"fmt"
	"strconv"
	"time"
)

// NotAvailable is the display placeholder for missing or unparseable values.
const NotAvailable = "N/A"

var mimeTypeNames = map[string]string{
	// Text & documents
	"text/plain":                              "Text File",
	"application/pdf":                         "PDF Document",
	"application/vnd.google-apps.document":    "Google Docs",
	"application/vnd.google-apps.spreadsheet": "Google Sheets",
	// 3D models
	"model/fbx":             "Autodesk FBX Model",
	"model/obj":             "Wavefront OBJ Model",
	"model/gltf+json":       "GLTF Model",
	"model/gltf-binary":     "GLB Model",
	"application/x-blender": "Blender Project",
	"application/x-3dsmax":  "3ds Max File",
	"application/x-maya":    "Maya File",
	"model/stl":             "STL 3D Model",
	"model/ply":             "PLY 3D Model",
	// Textures & images
	"image/png":                 "PNG Image",
	"image/jpeg":                "JPEG Image",
	"image/x-targa":             "TGA Texture",
	"image/vnd-ms.dds":          "DDS Texture",
	"image/x-exr":               "EXR Texture",
	"image/bmp":                 "BMP Image",
	"image/vnd.adobe.photoshop": "Photoshop PSD",
	"image/vnd.radiance":        "HDR Image",
	// Audio
	"audio/wav":  "WAV Audio",
	"audio/mpeg": "MP3 Audio",
	"audio/ogg":  "OGG Audio",
	"audio/flac": "FLAC Audio",
	// Video
	"video/mp4":       "MP4 Video",
	"video/quicktime": "MOV Video",
	"video/x-msvideo": "AVI Video",
	"video/webm":      "WebM Video",
	// Scripts & code
	"text/x-python":    "Python Script",
	"text/x-csharp":    "C# Script",
	"text/x-c++src":    "C++ Source File",
	"text/x-c++hdr":    "C++ Header File",
	"text/x-lua":       "Lua Script",
	"application/json": "JSON File",
	"application/xml":  "XML File",
	// Game engine files
	"application/vnd.unity":          "Unity Scene",
	"application/vnd.unreal":         "Unreal Asset",
	"application/vnd.unreal-project": "Unreal Project",
}

// FormatMimeType maps a MIME type to its display name.
func FormatMimeType(mimeType string) string {
	if name, ok := mimeTypeNames[mimeType]; ok {
		return name
	}
	return "Unknown File Type"
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count as a human-readable size string.
func FormatSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}

// FormatSizeString is FormatSize for providers that report size as a string.
func FormatSizeString(size string) string {
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return NotAvailable
	}
	return FormatSize(n)
}

// FormatDate renders an RFC 3339 timestamp in local time, second precision.
// Unparseable input yields "N/A".
func FormatDate(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return NotAvailable
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
