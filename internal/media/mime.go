package media

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// imageType describes an accepted upload format.
type imageType struct {
	ext string
	// format is the re-encode target; resizable is false for formats stored as-is.
	format    imaging.Format
	resizable bool
}

var imageTypes = map[string]imageType{
	"image/jpeg": {ext: ".jpg", format: imaging.JPEG, resizable: true},
	"image/png":  {ext: ".png", format: imaging.PNG, resizable: true},
	// animated; resizing would keep only the first frame
	"image/gif":  {ext: ".gif", format: imaging.GIF},
	"image/webp": {ext: ".webp"},
}

var allowedDescription = describeAllowed()

func describeAllowed() string {
	names := make([]string, 0, len(imageTypes))
	for mimeType := range imageTypes {
		names = append(names, strings.ToUpper(strings.TrimPrefix(mimeType, "image/")))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// sniff detects the content type from the first bytes of the file; the client's declared
// type and file name are ignored.
func sniff(head []byte) (string, imageType, error) {
	detected := http.DetectContentType(head)
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(detected, ";", 2)[0]))
	t, ok := imageTypes[mediaType]
	if !ok {
		return mediaType, imageType{}, fmt.Errorf("unsupported file type %s; upload %s", mediaType, allowedDescription)
	}
	return mediaType, t, nil
}
