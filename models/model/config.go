package model

import (
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-bev/bev"
	"github.com/pkg/errors"
)

// Config is the immutable parameter set of one model family.
//
// A Config is a value: copies never share state, so a resolved Config can be handed to any
// number of sequential or concurrent detect calls.
type Config struct {
	Name Name `json:"name" yaml:"name"`
	Arch Arch `json:"arch" yaml:"arch"`

	LimX bev.Range `json:"lim_x" yaml:"lim_x"`
	LimY bev.Range `json:"lim_y" yaml:"lim_y"`
	LimZ bev.Range `json:"lim_z" yaml:"lim_z"`
	// LimR bounds the normalized intensity channel of the BEV map.
	LimR bev.Range `json:"lim_r" yaml:"lim_r"`

	BEVWidth    int `json:"bev_width" yaml:"bev_width"`
	BEVHeight   int `json:"bev_height" yaml:"bev_height"`
	OutputWidth int `json:"output_width" yaml:"output_width"`

	ConfThreshold float32 `json:"conf_thresh" yaml:"conf_thresh"`
	MinIoU        float32 `json:"min_iou" yaml:"min_iou"`

	// WeightsPath is the pretrained checkpoint. The exported graph lives beside it, see ModelPath.
	WeightsPath string `json:"weights_path" yaml:"weights_path"`

	Params Params `json:"-" yaml:"-"`
}

// Shared defaults of every family.
var (
	DefaultLimX = bev.Range{0, 50}
	DefaultLimY = bev.Range{-25, 25}
	DefaultLimZ = bev.Range{-1, 3}
	DefaultLimR = bev.Range{0, 1.0}
)

const (
	// DefaultBEVSize is the square BEV raster resolution.
	DefaultBEVSize = 608
	// DefaultMinIoU is the evaluation IoU.
	DefaultMinIoU = 0.5
	// DefaultConfThreshold is the detection confidence of both families.
	DefaultConfThreshold = 0.5

	// DefaultResnetClass is the vehicle class, the only one the keypoint model reports by default.
	DefaultResnetClass = 1

	darknetDir = "tools/objdet_models/darknet"
	resnetDir  = "tools/objdet_models/resnet"
)

// BuildConfig resolves the default configuration of a model family.
//
// Arguments:
//   - name: The model name, NameDarknet or NameResnet.
//
// Returns:
//   - Config: The populated configuration. Two calls with the same name return equal values.
//   - error: ErrConfig if the name is unknown.
//
// Example:
//
// ```go
//
//	cfg, err := model.BuildConfig(model.NameResnet)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Arch) // fpn_resnet_18
//
// ```
func BuildConfig(name Name) (Config, error) {
	cfg := Config{
		Name:          name,
		LimX:          DefaultLimX,
		LimY:          DefaultLimY,
		LimZ:          DefaultLimZ,
		LimR:          DefaultLimR,
		BEVWidth:      DefaultBEVSize,
		BEVHeight:     DefaultBEVSize,
		OutputWidth:   DefaultBEVSize,
		ConfThreshold: DefaultConfThreshold,
		MinIoU:        DefaultMinIoU,
	}

	switch name {
	case NameDarknet:
		cfg.Arch = ArchDarknet
		cfg.WeightsPath = filepath.Join(darknetDir, "pretrained", "complex_yolov4_mse_loss.pth")
		cfg.Params = DarknetParams{
			CfgFile:      filepath.Join(darknetDir, "config", "complex_yolov4.cfg"),
			BatchSize:    4,
			ImgSize:      608,
			NumClasses:   3,
			NMSThreshold: 0.4,
			UseGIoULoss:  false,
			ClassID:      1,
			Height:       1.50,
		}
	case NameResnet:
		cfg.Arch = ArchResnet
		cfg.WeightsPath = filepath.Join(resnetDir, "pretrained", "fpn_resnet_18_epoch_300.pth")
		p := ResnetParams{
			BatchSize:          1,
			PeakThreshold:      0.2,
			InputSize:          [2]int{608, 608},
			HeatmapSize:        [2]int{152, 152},
			DownRatio:          4,
			MaxObjects:         50,
			TopK:               40,
			Classes:            []int{DefaultResnetClass},
			ImagenetPretrained: false,
			HeadConv:           64,
			NumClasses:         3,
			NumCenterOffset:    2,
			NumZ:               1,
			NumDim:             3,
			NumDirection:       2,
			NumInputFeatures:   4,
		}
		p.Heads = p.DeriveHeads()
		cfg.Params = p
	default:
		return Config{}, errors.Wrapf(ErrConfig, "invalid model name %q", name)
	}

	return cfg, nil
}

// Family returns the family selected by the configuration.
func (c Config) Family() Family {
	if c.Params != nil {
		return c.Params.Family()
	}
	return c.Arch.Family()
}

// Grid returns the BEV geometry of the configuration.
func (c Config) Grid() bev.Grid {
	return bev.Grid{
		LimX:   c.LimX,
		LimY:   c.LimY,
		LimZ:   c.LimZ,
		Width:  c.BEVWidth,
		Height: c.BEVHeight,
	}
}

// Darknet returns the darknet parameters, if the configuration carries them.
func (c Config) Darknet() (DarknetParams, bool) {
	p, ok := c.Params.(DarknetParams)
	return p, ok
}

// Resnet returns the keypoint model parameters, if the configuration carries them.
func (c Config) Resnet() (ResnetParams, bool) {
	p, ok := c.Params.(ResnetParams)
	return p, ok
}

// ModelPath returns the exported ONNX graph that sits beside the weights.
func (c Config) ModelPath() string {
	return strings.TrimSuffix(c.WeightsPath, filepath.Ext(c.WeightsPath)) + ".onnx"
}

// BatchSize returns the family's batch size.
func (c Config) BatchSize() int {
	switch p := c.Params.(type) {
	case DarknetParams:
		return p.BatchSize
	case ResnetParams:
		return p.BatchSize
	default:
		return 0
	}
}

// Validate checks every field once; a Config that passes is safe to decode with.
//
// Returns:
//   - error: ErrConfig wrapped with the offending field.
func (c Config) Validate() error {
	family := c.Arch.Family()
	if family == FamilyUnknown {
		return errors.Wrapf(ErrConfig, "unknown architecture %q", c.Arch)
	}
	if c.Params == nil {
		return errors.Wrapf(ErrConfig, "architecture %q has no parameters", c.Arch)
	}
	if c.Params.Family() != family {
		return errors.Wrapf(ErrConfig, "architecture %q cannot decode %s parameters", c.Arch, c.Params.Family())
	}
	if err := c.Grid().Validate(); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}
	if err := c.LimR.Validate(); err != nil {
		return errors.Wrapf(ErrConfig, "lim_r: %v", err)
	}
	if c.OutputWidth <= 0 {
		return errors.Wrapf(ErrConfig, "output_width must be positive, got %d", c.OutputWidth)
	}
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		return errors.Wrapf(ErrConfig, "conf_thresh must be in [0,1], got %g", c.ConfThreshold)
	}
	if c.MinIoU < 0 || c.MinIoU > 1 {
		return errors.Wrapf(ErrConfig, "min_iou must be in [0,1], got %g", c.MinIoU)
	}
	return c.Params.Validate()
}
