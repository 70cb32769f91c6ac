package catalog

import "github.com/ayusman/physiotrack/internal/pose"

// Preset is a built-in exercise together with its descriptive text.
type Preset struct {
	Definition
	Description     string
	InstructionsURL string
}

// Defaults returns the built-in exercise presets in catalog order.
func Defaults() []Preset {
	return []Preset{
		{
			Definition: Definition{
				Name: "Bicep Curls",
				Classification: &Classification{
					Thresholds: Thresholds{Up: 160, Down: 40},
					Landmarks:  [3]string{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
					Direction:  LowToHigh,
				},
			},
			Description:     "Perform bicep curls by curling your arms from extended to flexed position.",
			InstructionsURL: "https://example.com/bicep-curls",
		},
		{
			Definition: Definition{
				Name: "Shoulder Abduction",
				Classification: &Classification{
					Thresholds: Thresholds{Up: 70, Down: 30},
					Landmarks:  [3]string{pose.RightHip, pose.RightShoulder, pose.RightElbow},
					Direction:  HighToLow,
				},
			},
			Description:     "Raise your arms out to the sides away from your body.",
			InstructionsURL: "https://example.com/shoulder-abduction",
		},
		{
			Definition: Definition{
				Name: "Lateral Leg Raise",
				Classification: &Classification{
					Thresholds: Thresholds{Up: 150, Down: 130},
					Landmarks:  [3]string{pose.RightShoulder, pose.RightHip, pose.RightKnee},
					Direction:  HighToLow,
				},
			},
			Description:     "Raise your leg out to the side while standing.",
			InstructionsURL: "https://example.com/lateral-leg-raise",
		},
		{
			Definition: Definition{
				Name: "Knee Extension",
				Classification: &Classification{
					Thresholds: Thresholds{Up: 160, Down: 90},
					Landmarks:  [3]string{pose.RightHip, pose.RightKnee, pose.RightAnkle},
					Direction:  HighToLow,
				},
			},
			Description:     "Extend your leg from a seated position.",
			InstructionsURL: "https://example.com/knee-extension",
		},
	}
}

// DefaultDefinitions returns only the definitions of the built-in presets.
func DefaultDefinitions() []Definition {
	presets := Defaults()
	defs := make([]Definition, len(presets))
	for i, p := range presets {
		defs[i] = p.Definition
	}
	return defs
}
