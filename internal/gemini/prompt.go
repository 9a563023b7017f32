package gemini

import (
	"fmt"
	"strings"
)

// BuildPrompt augments a concept prompt with the fixed kiosk qualifiers. The
// output is a pure function of (conceptPrompt, aspectRatio).
func BuildPrompt(conceptPrompt, aspectRatio string) string {
	qualifiers := []string{
		"high resolution output",
		fmt.Sprintf("%s aspect ratio", aspectRatio),
		"natural flattering lighting",
		"preserve the subject's identity and facial features",
		"no text or watermark",
	}
	return fmt.Sprintf("Transform this photo: %s. Requirements: %s.",
		strings.TrimSuffix(strings.TrimSpace(conceptPrompt), "."),
		strings.Join(qualifiers, ", "))
}
