package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AllowedAvatarTypes are the sniffed MIME types accepted for avatars.
var AllowedAvatarTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var avatarNameInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// AvatarFilename names an uploaded avatar: <customer>_<review id>_<unix time><ext>.
func AvatarFilename(customerName string, reviewID int64, ext string, at time.Time) string {
	name := strings.Trim(avatarNameInvalid.ReplaceAllString(strings.ToLower(customerName), "-"), "-")
	if name == "" {
		name = "customer"
	}
	if len(name) > 40 {
		name = strings.TrimRight(name[:40], "-")
	}
	return fmt.Sprintf("%s_%d_%d%s", name, reviewID, at.Unix(), ext)
}

// AvatarURL is the public path of a stored avatar.
func AvatarURL(filename string) string {
	return "/uploads/avatars/" + filename
}
