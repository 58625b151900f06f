package gesture

import (
	"math"
	"sort"

	"github.com/ayusman/handray/internal/detector"
)

// Template is a hand shape to match against.
type Template struct {
	ID        string             // Unique identifier for the template
	Name      string             // Human-readable name
	Landmarks []detector.Point3D // Normalized landmarks
	Tolerance float64            // Maximum distance for a match
}

// Match represents a matching result between input and a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Match score (0-1, higher is better)
	Distance float64   // Summed per-landmark distance to the template
}

// OpenPalmTemplate is the default system gesture shape: all five fingers
// spread.
func OpenPalmTemplate() *Template {
	lm := detector.OpenPalmLandmarks()
	return &Template{
		ID:        "open-palm",
		Name:      "Open Palm",
		Landmarks: lm.Normalize().Points[:],
		Tolerance: 3.0,
	}
}

// StaticMatcher matches a single hand shape against registered templates.
type StaticMatcher struct {
	templates []*Template
}

// NewStaticMatcher creates a new StaticMatcher instance.
func NewStaticMatcher(templates ...*Template) *StaticMatcher {
	m := &StaticMatcher{}
	for _, t := range templates {
		m.AddTemplate(t)
	}
	return m
}

// AddTemplate adds a gesture template to the matcher.
func (m *StaticMatcher) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	m.templates = append(m.templates, t)
}

// RemoveTemplate removes a template by its ID.
func (m *StaticMatcher) RemoveTemplate(id string) {
	for i, t := range m.templates {
		if t.ID == id {
			m.templates = append(m.templates[:i], m.templates[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered templates.
func (m *StaticMatcher) Len() int {
	return len(m.templates)
}

// Match returns the templates within tolerance of the hand, best first.
// The score is 1/(1+distance) over wrist-relative, size-normalized landmarks.
func (m *StaticMatcher) Match(lm *detector.HandLandmarks) []Match {
	normalized := lm.Normalize()
	if normalized == nil {
		return nil
	}
	input := normalized.Points[:]

	var matches []Match
	for _, template := range m.templates {
		distance := euclideanDistance(input, template.Landmarks)
		if distance > template.Tolerance {
			continue
		}
		matches = append(matches, Match{
			Template: template,
			Score:    1.0 / (1.0 + distance),
			Distance: distance,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// euclideanDistance sums the distances between corresponding points. Extra
// points in the longer slice are ignored.
func euclideanDistance(a, b []detector.Point3D) float64 {
	n := min(len(a), len(b))

	var total float64
	for i := 0; i < n; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}
