package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for screening tuning
// parameters. Every field is optional: omitted fields fall back to the
// defaults returned by the Get* accessors, so partial configs are safe.
type TuningConfig struct {
	// Frame params
	MotionDelta         *float64 `json:"motion_delta,omitempty"`
	StatsThresholdSigma *float64 `json:"stats_threshold_sigma,omitempty"`

	// Thermal reference params
	EdgeThreshold        *float64 `json:"edge_threshold,omitempty"`
	RefMinRadius         *int     `json:"ref_min_radius,omitempty"`
	RefMaxRadius         *int     `json:"ref_max_radius,omitempty"`
	RefSweepMaxRadius    *int     `json:"ref_sweep_max_radius,omitempty"`
	RefMaxSensorMissing  *int     `json:"ref_max_sensor_missing,omitempty"`
	RefPersistScoreRatio *float64 `json:"ref_persist_score_ratio,omitempty"`
	RefCornerTolerance   *int     `json:"ref_corner_tolerance,omitempty"`

	// Region classification params
	MergeMinArea         *int     `json:"merge_min_area,omitempty"`
	MergeDistanceFactor  *float64 `json:"merge_distance_factor,omitempty"`
	MergeOffsetDivisor   *float64 `json:"merge_offset_divisor,omitempty"`
	BodyMinArea          *int     `json:"body_min_area,omitempty"`
	SmallBodyMaxArea     *int     `json:"small_body_max_area,omitempty"`
	CircularTolerance    *int     `json:"circular_tolerance,omitempty"`
	CeilingMaxRows       *int     `json:"ceiling_max_rows,omitempty"`
	CeilingWidthFraction *float64 `json:"ceiling_width_fraction,omitempty"`
	CrackMaxRows         *int     `json:"crack_max_rows,omitempty"`

	// Face params
	NeckWindow          *int     `json:"neck_window,omitempty"`
	ProbeReach          *int     `json:"probe_reach,omitempty"`
	NoseHeight          *float64 `json:"nose_height,omitempty"`
	ForeheadLow         *float64 `json:"forehead_low,omitempty"`
	ForeheadHigh        *float64 `json:"forehead_high,omitempty"`
	ForeheadInset       *float64 `json:"forehead_inset,omitempty"`
	HeadTiltMax         *float64 `json:"head_tilt_max,omitempty"`
	SymmetryLock        *float64 `json:"symmetry_lock,omitempty"`
	SymmetryLoose       *float64 `json:"symmetry_loose,omitempty"`
	AreaDiffLimit       *float64 `json:"area_diff_limit,omitempty"`
	HalfwayMin          *float64 `json:"halfway_min,omitempty"`
	HalfwayMax          *float64 `json:"halfway_max,omitempty"`
	HottestSpotFraction *float64 `json:"hottest_spot_fraction,omitempty"`

	// Screening params
	MinFaceArea     *float64 `json:"min_face_area,omitempty"`
	MoveAreaDelta   *float64 `json:"move_area_delta,omitempty"`
	MoveCornerDelta *float64 `json:"move_corner_delta,omitempty"`
	StableFrames    *int     `json:"stable_frames,omitempty"`
	WarmupFrames    *int     `json:"warmup_frames,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the Get* defaults. It is what config/tuning.defaults.json holds.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	return &TuningConfig{
		MotionDelta:          ptrFloat64(e.GetMotionDelta()),
		StatsThresholdSigma:  ptrFloat64(e.GetStatsThresholdSigma()),
		EdgeThreshold:        ptrFloat64(e.GetEdgeThreshold()),
		RefMinRadius:         ptrInt(e.GetRefMinRadius()),
		RefMaxRadius:         ptrInt(e.GetRefMaxRadius()),
		RefSweepMaxRadius:    ptrInt(e.GetRefSweepMaxRadius()),
		RefMaxSensorMissing:  ptrInt(e.GetRefMaxSensorMissing()),
		RefPersistScoreRatio: ptrFloat64(e.GetRefPersistScoreRatio()),
		RefCornerTolerance:   ptrInt(e.GetRefCornerTolerance()),
		MergeMinArea:         ptrInt(e.GetMergeMinArea()),
		MergeDistanceFactor:  ptrFloat64(e.GetMergeDistanceFactor()),
		MergeOffsetDivisor:   ptrFloat64(e.GetMergeOffsetDivisor()),
		BodyMinArea:          ptrInt(e.GetBodyMinArea()),
		SmallBodyMaxArea:     ptrInt(e.GetSmallBodyMaxArea()),
		CircularTolerance:    ptrInt(e.GetCircularTolerance()),
		CeilingMaxRows:       ptrInt(e.GetCeilingMaxRows()),
		CeilingWidthFraction: ptrFloat64(e.GetCeilingWidthFraction()),
		CrackMaxRows:         ptrInt(e.GetCrackMaxRows()),
		NeckWindow:           ptrInt(e.GetNeckWindow()),
		ProbeReach:           ptrInt(e.GetProbeReach()),
		NoseHeight:           ptrFloat64(e.GetNoseHeight()),
		ForeheadLow:          ptrFloat64(e.GetForeheadLow()),
		ForeheadHigh:         ptrFloat64(e.GetForeheadHigh()),
		ForeheadInset:        ptrFloat64(e.GetForeheadInset()),
		HeadTiltMax:          ptrFloat64(e.GetHeadTiltMax()),
		SymmetryLock:         ptrFloat64(e.GetSymmetryLock()),
		SymmetryLoose:        ptrFloat64(e.GetSymmetryLoose()),
		AreaDiffLimit:        ptrFloat64(e.GetAreaDiffLimit()),
		HalfwayMin:           ptrFloat64(e.GetHalfwayMin()),
		HalfwayMax:           ptrFloat64(e.GetHalfwayMax()),
		HottestSpotFraction:  ptrFloat64(e.GetHottestSpotFraction()),
		MinFaceArea:          ptrFloat64(e.GetMinFaceArea()),
		MoveAreaDelta:        ptrFloat64(e.GetMoveAreaDelta()),
		MoveCornerDelta:      ptrFloat64(e.GetMoveCornerDelta()),
		StableFrames:         ptrInt(e.GetStableFrames()),
		WarmupFrames:         ptrInt(e.GetWarmupFrames()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/thermal/face/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.RefMinRadius != nil && *c.RefMinRadius < 0 {
		return fmt.Errorf("ref_min_radius must be non-negative, got %d", *c.RefMinRadius)
	}
	if c.GetRefMaxRadius() <= c.GetRefMinRadius()+1 {
		return fmt.Errorf("ref_max_radius (%d) must exceed ref_min_radius (%d) by more than 1",
			c.GetRefMaxRadius(), c.GetRefMinRadius())
	}
	if c.GetRefSweepMaxRadius() < c.GetRefMaxRadius() {
		return fmt.Errorf("ref_sweep_max_radius (%d) must be at least ref_max_radius (%d)",
			c.GetRefSweepMaxRadius(), c.GetRefMaxRadius())
	}
	if c.RefMaxSensorMissing != nil && *c.RefMaxSensorMissing < 0 {
		return fmt.Errorf("ref_max_sensor_missing must be non-negative, got %d", *c.RefMaxSensorMissing)
	}
	if r := c.GetRefPersistScoreRatio(); r < 0 || r > 1 {
		return fmt.Errorf("ref_persist_score_ratio must be between 0 and 1, got %f", r)
	}
	if d := c.GetMergeOffsetDivisor(); d <= 0 {
		return fmt.Errorf("merge_offset_divisor must be positive, got %f", d)
	}
	if f := c.GetCeilingWidthFraction(); f <= 0 || f > 1 {
		return fmt.Errorf("ceiling_width_fraction must be in (0, 1], got %f", f)
	}
	if n := c.GetCrackMaxRows(); n < 0 {
		return fmt.Errorf("crack_max_rows must be non-negative, got %d", n)
	}
	lo, hi := c.GetForeheadLow(), c.GetForeheadHigh()
	if lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("forehead band must satisfy 0 <= low < high <= 1, got [%f, %f]", lo, hi)
	}
	if inset := c.GetForeheadInset(); inset < 0 || inset >= 1 {
		return fmt.Errorf("forehead_inset must be in [0, 1), got %f", inset)
	}
	if c.GetHalfwayMin() > c.GetHalfwayMax() {
		return fmt.Errorf("halfway_min (%f) must not exceed halfway_max (%f)", c.GetHalfwayMin(), c.GetHalfwayMax())
	}
	if c.StableFrames != nil && *c.StableFrames < 0 {
		return fmt.Errorf("stable_frames must be non-negative, got %d", *c.StableFrames)
	}
	if c.WarmupFrames != nil && *c.WarmupFrames < 0 {
		return fmt.Errorf("warmup_frames must be non-negative, got %d", *c.WarmupFrames)
	}
	return nil
}

// GetMotionDelta returns the motion_delta value or the default.
func (c *TuningConfig) GetMotionDelta() float64 {
	if c.MotionDelta == nil {
		return 30
	}
	return *c.MotionDelta
}

// GetStatsThresholdSigma returns the stats_threshold_sigma value or the default.
func (c *TuningConfig) GetStatsThresholdSigma() float64 {
	if c.StatsThresholdSigma == nil {
		return 1.0
	}
	return *c.StatsThresholdSigma
}

// GetEdgeThreshold returns the edge_threshold value or the default.
func (c *TuningConfig) GetEdgeThreshold() float64 {
	if c.EdgeThreshold == nil {
		return 40
	}
	return *c.EdgeThreshold
}

// GetRefMinRadius returns the ref_min_radius value (exclusive) or the default.
func (c *TuningConfig) GetRefMinRadius() int {
	if c.RefMinRadius == nil {
		return 4
	}
	return *c.RefMinRadius
}

// GetRefMaxRadius returns the ref_max_radius value (exclusive) or the default.
func (c *TuningConfig) GetRefMaxRadius() int {
	if c.RefMaxRadius == nil {
		return 8
	}
	return *c.RefMaxRadius
}

// GetRefSweepMaxRadius returns the ref_sweep_max_radius value or the default.
func (c *TuningConfig) GetRefSweepMaxRadius() int {
	if c.RefSweepMaxRadius == nil {
		return 12
	}
	return *c.RefSweepMaxRadius
}

// GetRefMaxSensorMissing returns the ref_max_sensor_missing value or the default.
func (c *TuningConfig) GetRefMaxSensorMissing() int {
	if c.RefMaxSensorMissing == nil {
		return 20
	}
	return *c.RefMaxSensorMissing
}

// GetRefPersistScoreRatio returns the ref_persist_score_ratio value or the default.
func (c *TuningConfig) GetRefPersistScoreRatio() float64 {
	if c.RefPersistScoreRatio == nil {
		return 0.5
	}
	return *c.RefPersistScoreRatio
}

// GetRefCornerTolerance returns the ref_corner_tolerance value or the default.
func (c *TuningConfig) GetRefCornerTolerance() int {
	if c.RefCornerTolerance == nil {
		return 5
	}
	return *c.RefCornerTolerance
}

// GetMergeMinArea returns the merge_min_area value or the default.
func (c *TuningConfig) GetMergeMinArea() int {
	if c.MergeMinArea == nil {
		return 100
	}
	return *c.MergeMinArea
}

// GetMergeDistanceFactor returns the merge_distance_factor value or the default.
func (c *TuningConfig) GetMergeDistanceFactor() float64 {
	if c.MergeDistanceFactor == nil {
		return 20
	}
	return *c.MergeDistanceFactor
}

// GetMergeOffsetDivisor returns the merge_offset_divisor value or the default.
func (c *TuningConfig) GetMergeOffsetDivisor() float64 {
	if c.MergeOffsetDivisor == nil {
		return 20
	}
	return *c.MergeOffsetDivisor
}

// GetBodyMinArea returns the body_min_area value or the default.
func (c *TuningConfig) GetBodyMinArea() int {
	if c.BodyMinArea == nil {
		return 600
	}
	return *c.BodyMinArea
}

// GetSmallBodyMaxArea returns the small_body_max_area value or the default.
func (c *TuningConfig) GetSmallBodyMaxArea() int {
	if c.SmallBodyMaxArea == nil {
		return 300
	}
	return *c.SmallBodyMaxArea
}

// GetCircularTolerance returns the circular_tolerance value or the default.
func (c *TuningConfig) GetCircularTolerance() int {
	if c.CircularTolerance == nil {
		return 4
	}
	return *c.CircularTolerance
}

// GetCeilingMaxRows returns the ceiling_max_rows value or the default.
func (c *TuningConfig) GetCeilingMaxRows() int {
	if c.CeilingMaxRows == nil {
		return 80
	}
	return *c.CeilingMaxRows
}

// GetCeilingWidthFraction returns the ceiling_width_fraction value or the default.
func (c *TuningConfig) GetCeilingWidthFraction() float64 {
	if c.CeilingWidthFraction == nil {
		return 0.8
	}
	return *c.CeilingWidthFraction
}

// GetCrackMaxRows returns the crack_max_rows value or the default.
func (c *TuningConfig) GetCrackMaxRows() int {
	if c.CrackMaxRows == nil {
		return 3
	}
	return *c.CrackMaxRows
}

// GetNeckWindow returns the neck_window value or the default.
func (c *TuningConfig) GetNeckWindow() int {
	if c.NeckWindow == nil {
		return 13
	}
	return *c.NeckWindow
}

// GetProbeReach returns the probe_reach value or the default.
func (c *TuningConfig) GetProbeReach() int {
	if c.ProbeReach == nil {
		return 50
	}
	return *c.ProbeReach
}

// GetNoseHeight returns the nose_height value or the default.
func (c *TuningConfig) GetNoseHeight() float64 {
	if c.NoseHeight == nil {
		return 0.4
	}
	return *c.NoseHeight
}

// GetForeheadLow returns the forehead_low value or the default.
func (c *TuningConfig) GetForeheadLow() float64 {
	if c.ForeheadLow == nil {
		return 0.65
	}
	return *c.ForeheadLow
}

// GetForeheadHigh returns the forehead_high value or the default.
func (c *TuningConfig) GetForeheadHigh() float64 {
	if c.ForeheadHigh == nil {
		return 0.80
	}
	return *c.ForeheadHigh
}

// GetForeheadInset returns the forehead_inset value or the default.
func (c *TuningConfig) GetForeheadInset() float64 {
	if c.ForeheadInset == nil {
		return 0.4
	}
	return *c.ForeheadInset
}

// GetHeadTiltMax returns the head_tilt_max value or the default.
func (c *TuningConfig) GetHeadTiltMax() float64 {
	if c.HeadTiltMax == nil {
		return 5
	}
	return *c.HeadTiltMax
}

// GetSymmetryLock returns the symmetry_lock value or the default.
func (c *TuningConfig) GetSymmetryLock() float64 {
	if c.SymmetryLock == nil {
		return 1.2
	}
	return *c.SymmetryLock
}

// GetSymmetryLoose returns the symmetry_loose value or the default.
func (c *TuningConfig) GetSymmetryLoose() float64 {
	if c.SymmetryLoose == nil {
		return 3
	}
	return *c.SymmetryLoose
}

// GetAreaDiffLimit returns the area_diff_limit value or the default.
func (c *TuningConfig) GetAreaDiffLimit() float64 {
	if c.AreaDiffLimit == nil {
		return 60
	}
	return *c.AreaDiffLimit
}

// GetHalfwayMin returns the halfway_min value or the default.
func (c *TuningConfig) GetHalfwayMin() float64 {
	if c.HalfwayMin == nil {
		return 0.4
	}
	return *c.HalfwayMin
}

// GetHalfwayMax returns the halfway_max value or the default.
func (c *TuningConfig) GetHalfwayMax() float64 {
	if c.HalfwayMax == nil {
		return 0.6
	}
	return *c.HalfwayMax
}

// GetHottestSpotFraction returns the hottest_spot_fraction value or the default.
func (c *TuningConfig) GetHottestSpotFraction() float64 {
	if c.HottestSpotFraction == nil {
		return 0.8
	}
	return *c.HottestSpotFraction
}

// GetMinFaceArea returns the min_face_area value or the default.
func (c *TuningConfig) GetMinFaceArea() float64 {
	if c.MinFaceArea == nil {
		return 1500
	}
	return *c.MinFaceArea
}

// GetMoveAreaDelta returns the move_area_delta value or the default.
func (c *TuningConfig) GetMoveAreaDelta() float64 {
	if c.MoveAreaDelta == nil {
		return 150
	}
	return *c.MoveAreaDelta
}

// GetMoveCornerDelta returns the move_corner_delta value or the default.
func (c *TuningConfig) GetMoveCornerDelta() float64 {
	if c.MoveCornerDelta == nil {
		return 10
	}
	return *c.MoveCornerDelta
}

// GetStableFrames returns the stable_frames value or the default.
func (c *TuningConfig) GetStableFrames() int {
	if c.StableFrames == nil {
		return 2
	}
	return *c.StableFrames
}

// GetWarmupFrames returns the warmup_frames value or the default.
func (c *TuningConfig) GetWarmupFrames() int {
	if c.WarmupFrames == nil {
		return 0
	}
	return *c.WarmupFrames
}
