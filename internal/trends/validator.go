package trends

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oppradar/oppradar/internal/core/domain"
)

const (
	// recentWindow is the number of trailing daily points averaged into the
	// interest score and compared against the preceding window for momentum.
	recentWindow = 7

	// momentumThreshold separates stable from rising or declining. The
	// comparison is strict: exactly +10% is still stable.
	momentumThreshold = 10.0

	maxRelatedQueries = 5

	interestWeight     = 0.35
	momentumWeight     = 0.30
	relatedWeight      = 0.20
	audienceWeight     = 0.15
	relatedQueryPoints = 20

	momentumScaleHalfRange = 50.0

	matchedAudienceFit = 100
	genericAudienceFit = 50
)

var technicalMarkers = []string{
	"api", "sdk", "cli", "code", "develop", "deploy", "github", "docker",
	"server", "database", "terminal", "linux", "debug", "script",
}

var businessMarkers = []string{
	"invoice", "crm", "sales", "marketing", "payroll", "accounting",
	"client", "lead", "ecommerce", "inventory", "bookkeep", "freelanc",
}

// Validator turns a raw provider signal into a scored TrendValidation. It
// degrades through a provider chain and bottoms out at a zero signal, so a
// trends outage can never fail a discovery run.
type Validator struct {
	providers []Provider
	logger    *zerolog.Logger
}

func NewValidator(logger *zerolog.Logger, providers ...Provider) *Validator {
	return &Validator{providers: providers, logger: logger}
}

// Validate fetches demand data for the keyword from the first provider that
// answers. It always returns a usable validation and never an error.
func (v *Validator) Validate(ctx context.Context, keyword string) *domain.TrendValidation {
	for _, provider := range v.providers {
		signal, err := provider.Fetch(ctx, keyword)
		if err != nil {
			v.logger.Warn().Err(err).Str("provider", provider.Name()).Str("keyword", keyword).Msg("trend provider failed")
			continue
		}

		return v.build(keyword, provider.Name(), signal)
	}

	v.logger.Warn().Str("keyword", keyword).Msg("no trend signal available, using zero signal")

	return v.build(keyword, "none", &Signal{})
}

func (v *Validator) build(keyword, provider string, signal *Signal) *domain.TrendValidation {
	interest := interestScore(signal.Interest)
	momentum, direction := momentumOf(signal.Interest)
	related := relatedQueries(signal)
	tags, matched := audienceTags(keyword, related)

	validation := &domain.TrendValidation{
		Keyword:        keyword,
		InterestScore:  interest,
		Momentum:       momentum,
		Direction:      direction,
		RelatedQueries: related,
		AudienceTags:   tags,
		Provider:       provider,
	}

	validation.TrendScore = trendScore(interest, momentum, len(related), matched)

	return validation
}

// interestScore averages the trailing window of daily points.
func interestScore(interest []int) int {
	if len(interest) == 0 {
		return 0
	}

	window := interest
	if len(window) > recentWindow {
		window = window[len(window)-recentWindow:]
	}

	sum := 0
	for _, point := range window {
		sum += point
	}

	return sum / len(window)
}

// momentumOf compares the last window against the one before it as a
// percentage change. Fewer than two full windows is not enough history to
// call a direction.
func momentumOf(interest []int) (float64, domain.TrendDirection) {
	if len(interest) < 2*recentWindow {
		return 0, domain.TrendStable
	}

	recent := avg(interest[len(interest)-recentWindow:])
	previous := avg(interest[len(interest)-2*recentWindow : len(interest)-recentWindow])

	var momentum float64

	switch {
	case previous > 0:
		momentum = (recent - previous) / previous * 100
	case recent > 0:
		momentum = 100
	}

	switch {
	case momentum > momentumThreshold:
		return momentum, domain.TrendRising
	case momentum < -momentumThreshold:
		return momentum, domain.TrendDeclining
	default:
		return momentum, domain.TrendStable
	}
}

func avg(points []int) float64 {
	sum := 0
	for _, point := range points {
		sum += point
	}

	return float64(sum) / float64(len(points))
}

// relatedQueries merges rising before top, deduplicates case-insensitively
// and caps the list.
func relatedQueries(signal *Signal) []string {
	var related []string

	seen := make(map[string]bool)

	for _, query := range append(append([]string{}, signal.Rising...), signal.Top...) {
		key := strings.ToLower(strings.TrimSpace(query))
		if key == "" || seen[key] {
			continue
		}

		seen[key] = true
		related = append(related, query)

		if len(related) >= maxRelatedQueries {
			break
		}
	}

	return related
}

// audienceTags classifies the keyword together with its related queries by
// marker substrings. matched reports whether any marker actually fired; with
// no signal at all the tags default to both audiences.
func audienceTags(keyword string, related []string) (tags []string, matched bool) {
	blob := strings.ToLower(strings.Join(append([]string{keyword}, related...), " "))

	for _, marker := range technicalMarkers {
		if strings.Contains(blob, marker) {
			tags = append(tags, domain.AudienceTechnical)
			break
		}
	}

	for _, marker := range businessMarkers {
		if strings.Contains(blob, marker) {
			tags = append(tags, domain.AudienceBusiness)
			break
		}
	}

	if len(tags) == 0 {
		return []string{domain.AudienceTechnical, domain.AudienceBusiness}, false
	}

	return tags, true
}

// trendScore combines the demand components into [0,100]. Momentum is
// rescaled from [-50,+50] percent onto [0,100] and clipped outside it.
func trendScore(interest int, momentum float64, relatedCount int, audienceMatched bool) int {
	momentumComponent := (momentum + momentumScaleHalfRange) / (2 * momentumScaleHalfRange) * 100
	momentumComponent = math.Max(0, math.Min(100, momentumComponent))

	relatedComponent := math.Min(float64(relatedCount*relatedQueryPoints), 100)

	audienceComponent := float64(genericAudienceFit)
	if audienceMatched {
		audienceComponent = matchedAudienceFit
	}

	score := interestWeight*float64(interest) +
		momentumWeight*momentumComponent +
		relatedWeight*relatedComponent +
		audienceWeight*audienceComponent

	return int(math.Round(score))
}
