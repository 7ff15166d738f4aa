package world

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/fieldsignals/beacon-simulator/model"
)

// Scenario is a small summary of what was loaded from YAML. It is mainly
// useful for logging from main().
type Scenario struct {
	RobotNames []string
	BeaconIDs  []string
	MapSet     bool
}

// BeaconStore is the part of the registry the loader needs.
type BeaconStore interface {
	Replace(beacons []model.Beacon)
}

// scenarioYAML is the on-disk shape of a scenario file.
type scenarioYAML struct {
	Map     *MapInfo       `yaml:"map"`
	Beacons []model.Beacon `yaml:"beacons"`
	Robots  []robotYAML    `yaml:"robots"`
}

type robotYAML struct {
	Name    string                    `yaml:"name"`
	Pose    model.Pose                `yaml:"pose"`
	Motion  motionYAML                `yaml:"motion"`
	Sensors []model.SensorDescription `yaml:"sensors"`
}

type motionYAML struct {
	Type    string  `yaml:"type"` // "static" | "unicycle"
	Linear  float64 `yaml:"linear"`
	Angular float64 `yaml:"angular"`
}

// LoadScenario reads a YAML scenario from r, populates the world with map
// extent and robots, replaces the beacon registry with the scenario's
// beacon set, and returns a summary of what was loaded. Sensor descriptions
// are validated up front so a bad scenario fails loudly instead of
// producing a sensor that never detects anything.
func LoadScenario(w *World, beacons BeaconStore, r io.Reader) (*Scenario, error) {
	if w == nil {
		return nil, fmt.Errorf("LoadScenario: world is nil")
	}

	var payload scenarioYAML
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	result := &Scenario{}

	if payload.Map != nil {
		w.SetMapInfo(*payload.Map)
		result.MapSet = true
	}

	for i := range payload.Robots {
		ry := payload.Robots[i]
		if ry.Name == "" {
			return nil, fmt.Errorf("LoadScenario: robot %d has no name", i)
		}

		robot := &model.RobotDefinition{
			Name:    ry.Name,
			Pose:    ry.Pose,
			Motion:  model.MotionParams{Linear: ry.Motion.Linear, Angular: ry.Motion.Angular},
			Sensors: ry.Sensors,
		}
		switch ry.Motion.Type {
		case "", "static":
			robot.MotionSource = model.MotionSourceStatic
		case "unicycle":
			robot.MotionSource = model.MotionSourceUnicycle
		default:
			return nil, fmt.Errorf("LoadScenario: robot %q: unknown motion type %q", ry.Name, ry.Motion.Type)
		}

		for _, desc := range robot.Sensors {
			if err := desc.Validate(); err != nil {
				return nil, fmt.Errorf("LoadScenario: robot %q sensor %q: %w", ry.Name, desc.FrameID, err)
			}
		}

		if err := w.AddRobot(robot); err != nil {
			return nil, fmt.Errorf("LoadScenario: %w", err)
		}
		result.RobotNames = append(result.RobotNames, ry.Name)
	}

	if beacons != nil {
		beacons.Replace(payload.Beacons)
	}
	for _, b := range payload.Beacons {
		result.BeaconIDs = append(result.BeaconIDs, b.ID)
	}

	return result, nil
}
