package scenario

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/opd-ai/go-elastic/pkg/physics"
	"github.com/opd-ai/go-elastic/pkg/status"
	"github.com/opd-ai/go-elastic/pkg/validation"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	gasFieldSize  = 500
	gasSpacing    = physics.GasParticleRadius * 3
)

var presets = map[string]func(rng *rand.Rand) *Scenario{
	"wall":           wallPreset,
	"oblique":        obliquePreset,
	"mass-ratio":     massRatioPreset,
	"cradle":         cradlePreset,
	"pool":           poolPreset,
	"gas":            gasControlPreset,
	"gas-half-speed": gasHalfSpeedPreset,
	"gas-half":       gasHalfPreset,
	"gas-double":     gasDoublePreset,
	"empty":          emptyPreset,
}

// Presets returns the names of the built-in scenarios in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset builds the named built-in scenario. Gas presets shuffle their
// velocities with rng; a nil rng uses a time-seeded source.
func Preset(name string, rng *rand.Rand) (*Scenario, error) {
	clean, err := validation.ValidateScenarioName(name)
	if err != nil {
		return nil, err
	}
	build, ok := presets[clean]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := build(rng)
	s.Name = clean
	return s, nil
}

func ball(x, y, mass, vx, vy float64, fill string) BodySpec {
	return BodySpec{Kind: KindBall, X: x, Y: y, VX: vx, VY: vy, Mass: mass, Color: fill}
}

func wallPreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "A single ball bouncing off the walls",
		Width:       defaultWidth,
		Height:      defaultHeight,
		Status:      []string{status.WallCounterName, status.AvgSpeedName},
		Bodies:      []BodySpec{ball(-10, 0, 1, 3, 4, "black")},
	}
}

func obliquePreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "Off-centre collision of two equal balls",
		Width:       defaultWidth,
		Height:      defaultHeight,
		Status:      []string{status.AvgSpeedName, status.ObjectCounterName},
		Bodies: []BodySpec{
			ball(-100, 20, 1, 4, 0, "red"),
			ball(100, 0, 1, 0, 0, "blue"),
		},
	}
}

func massRatioPreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "A heavy ball ploughing through four light ones",
		Width:       defaultWidth,
		Height:      defaultHeight,
		Status:      []string{status.AvgSpeedName, status.ObjectCounterName},
		Bodies: []BodySpec{
			ball(-100, 21, 1, 0, 0, "red"),
			ball(-100, -21, 1, 0, 0, "green"),
			ball(-100, 62, 1, 0, 0, "blue"),
			ball(-100, -62, 1, 0, 0, "yellow"),
			ball(100, 0, 100, -1, 0, "black"),
		},
	}
}

func cradlePreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "Newton's cradle: a row of touching balls struck at one end",
		Width:       defaultWidth,
		Height:      defaultHeight,
		Status:      []string{status.AvgSpeedName, status.ObjectCounterName},
		Bodies: []BodySpec{
			ball(-173, 0, 1, 2, 0, "red"),
			ball(-82, 0, 1, 0, 0, "orange"),
			ball(-41, 0, 1, 0, 0, "yellow"),
			ball(0, 0, 1, 0, 0, "green"),
			ball(41, 0, 1, 0, 0, "blue"),
			ball(82, 0, 1, 0, 0, "indigo"),
			ball(123, 0, 1, 0, 0, "violet"),
		},
	}
}

func poolPreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "Pool break: a cue ball into a rack of fifteen",
		Width:       defaultWidth,
		Height:      defaultHeight,
		Status: []string{
			status.AvgSpeedName, status.ObjectCounterName, status.WallCounterName,
			status.HeightName, status.WidthName,
		},
		Bodies: []BodySpec{
			ball(-200, 0, 1, 10, 0, "whitesmoke"),
			ball(150, 0, 1, 0, 0, "black"),
			ball(68, 0, 1, 0, 0, "yellow"),
			ball(109, 21, 1, 0, 0, "red"),
			ball(109, -21, 1, 0, 0, "red"),
			ball(150, 41, 1, 0, 0, "green"),
			ball(150, -41, 1, 0, 0, "green"),
			ball(191, 21, 1, 0, 0, "yellow"),
			ball(191, -21, 1, 0, 0, "purple"),
			ball(191, 62, 1, 0, 0, "maroon"),
			ball(191, -62, 1, 0, 0, "orange"),
			ball(232, 0, 1, 0, 0, "purple"),
			ball(232, 41, 1, 0, 0, "orange"),
			ball(232, -41, 1, 0, 0, "blue"),
			ball(232, 82, 1, 0, 0, "blue"),
			ball(232, -82, 1, 0, 0, "maroon"),
		},
	}
}

// gasPreset lays particles on a grid with columns iMin..iMax and rows
// -4..5, spaced three radii apart. Velocities come from velocity(i, j) and
// are shuffled across the grid.
func gasPreset(rng *rand.Rand, description string, iMin, iMax int, velocity func(i, j int) (float64, float64)) *Scenario {
	var velocities [][2]float64
	for i := iMin; i <= iMax; i++ {
		for j := -4; j <= 5; j++ {
			vx, vy := velocity(i, j)
			velocities = append(velocities, [2]float64{vx, vy})
		}
	}
	rng.Shuffle(len(velocities), func(a, b int) {
		velocities[a], velocities[b] = velocities[b], velocities[a]
	})

	bodies := make([]BodySpec, 0, len(velocities))
	k := 0
	for i := iMin; i <= iMax; i++ {
		for j := -4; j <= 5; j++ {
			bodies = append(bodies, BodySpec{
				Kind: KindGas,
				X:    float64(i * gasSpacing),
				Y:    float64(j * gasSpacing),
				VX:   velocities[k][0],
				VY:   velocities[k][1],
			})
			k++
		}
	}

	return &Scenario{
		Description: description,
		Width:       gasFieldSize,
		Height:      gasFieldSize,
		Status: []string{
			status.WallRateName, status.AvgSpeedName, status.HeightName, status.WidthName,
		},
		Bodies: bodies,
	}
}

func halves(i, j int) (float64, float64)   { return float64(i) / 2, float64(j) / 2 }
func quarters(i, j int) (float64, float64) { return float64(i) / 4, float64(j) / 4 }

func gasControlPreset(rng *rand.Rand) *Scenario {
	return gasPreset(rng, "Ideal gas: 100 particles", -4, 5, halves)
}

func gasHalfSpeedPreset(rng *rand.Rand) *Scenario {
	return gasPreset(rng, "Ideal gas at half speed", -4, 5, quarters)
}

func gasHalfPreset(rng *rand.Rand) *Scenario {
	return gasPreset(rng, "Ideal gas with half the particles", -4, 0, halves)
}

func gasDoublePreset(rng *rand.Rand) *Scenario {
	return gasPreset(rng, "Ideal gas with twice the particles", -9, 10, func(i, j int) (float64, float64) {
		if i >= -4 && i <= 5 {
			return halves(i, j)
		}
		return quarters(i, j)
	})
}

func emptyPreset(*rand.Rand) *Scenario {
	return &Scenario{
		Description: "An empty field for loading saved states",
		Width:       defaultWidth,
		Height:      defaultHeight,
	}
}
