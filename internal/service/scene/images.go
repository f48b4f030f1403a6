// Package scene turns key moments into image-generation requests. The
// rendering backend is external; this package only shapes the prompt and
// hands the request off without blocking the turn path.
package scene

import (
	"fmt"
	"log"

	"github.com/wyldephyre/nexus-arcanum/backend/internal/analysis/moment"
)

// ImageRequest is the fire-and-forget payload emitted at a key moment.
type ImageRequest struct {
	SessionID string
	Prompt    string
	Tags      []moment.Tag
}

// Requester receives image requests. Implementations must return quickly; no
// result is awaited.
type Requester interface {
	Request(req ImageRequest)
}

// BuildPrompt shapes the image prompt for a key moment.
func BuildPrompt(primary moment.Tag, sceneDescription, characterName string) string {
	var prompt string
	switch primary {
	case moment.Combat:
		prompt = fmt.Sprintf("Epic combat scene in post-apocalyptic Melbourne: %s. Dynamic action, dramatic lighting, Nexus Arcanum aesthetic.", sceneDescription)
	case moment.Discovery:
		prompt = fmt.Sprintf("Discovery moment in the Nexus Arcanum world: %s. Sense of wonder, magical elements, detailed environment.", sceneDescription)
	case moment.Boss:
		prompt = fmt.Sprintf("Boss encounter in Nexus Arcanum: %s. Intense, dramatic, high stakes, cinematic composition.", sceneDescription)
	case moment.Luminari:
		prompt = fmt.Sprintf("Luminari encounter, ethereal light beings in Nexus Arcanum: %s. Radiant, mystical, otherworldly.", sceneDescription)
	case moment.Umbralari:
		prompt = fmt.Sprintf("Umbralari encounter, corrupted shadow beings in Nexus Arcanum: %s. Dark, menacing, corrupted energy.", sceneDescription)
	case moment.WeaveAbility:
		prompt = fmt.Sprintf("Nexus Weave magic in action: %s. Magical energy, Nexus threads visible, powerful moment.", sceneDescription)
	default:
		prompt = fmt.Sprintf("Scene from Nexus Arcanum: %s. Post-apocalyptic Melbourne, urban fantasy, atmospheric.", sceneDescription)
	}
	if characterName != "" {
		prompt += fmt.Sprintf(" Featuring %s.", characterName)
	}
	return prompt
}

// LogRequester is the default requester: it records the request and does
// nothing else. Deployments wire a real backend here.
type LogRequester struct{}

// Request logs the image request.
func (LogRequester) Request(req ImageRequest) {
	log.Printf("[scene] image request session=%s tags=%v", req.SessionID, req.Tags)
}
