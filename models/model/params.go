package model

import (
	"github.com/pkg/errors"
)

// DarknetParams holds the Complex-YOLO specific parameters.
type DarknetParams struct {
	// CfgFile is the darknet network definition.
	CfgFile string `json:"cfg_file" yaml:"cfg_file"`
	// BatchSize is the number of BEV maps per forward pass.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// ImgSize is the square network input size in pixels.
	ImgSize int `json:"img_size" yaml:"img_size"`
	// NumClasses is the number of class score columns per box row.
	NumClasses int `json:"num_classes" yaml:"num_classes"`
	// NMSThreshold is the rotated IoU above which same-class boxes are merged.
	NMSThreshold float32 `json:"nms_thresh" yaml:"nms_thresh"`
	// UseGIoULoss is carried from training and has no effect on decoding.
	UseGIoULoss bool `json:"use_giou_loss" yaml:"use_giou_loss"`
	// ClassID is reported for every surviving box.
	ClassID int `json:"class_id" yaml:"class_id"`
	// Height is the fixed object height in meters.
	Height float32 `json:"height" yaml:"height"`
	// Workers bounds the goroutines decoding batch elements. Zero or one decodes sequentially.
	Workers int `json:"workers" yaml:"workers"`
}

func (DarknetParams) isParams() {}

// Family returns FamilyDarknet.
func (DarknetParams) Family() Family { return FamilyDarknet }

// RowWidth returns the number of values per raw box row.
func (p DarknetParams) RowWidth() int {
	return DarknetBoxFields + p.NumClasses
}

// DarknetBoxFields is the number of values preceding the class scores in a raw box row:
// x, y, w, l, im, re, obj.
const DarknetBoxFields = 7

// Validate checks the darknet fields.
func (p DarknetParams) Validate() error {
	switch {
	case p.BatchSize <= 0:
		return errors.Wrapf(ErrConfig, "darknet batch_size must be positive, got %d", p.BatchSize)
	case p.NumClasses <= 0:
		return errors.Wrapf(ErrConfig, "darknet num_classes must be positive, got %d", p.NumClasses)
	case p.NMSThreshold < 0 || p.NMSThreshold > 1:
		return errors.Wrapf(ErrConfig, "darknet nms_thresh must be in [0,1], got %g", p.NMSThreshold)
	case p.Height <= 0:
		return errors.Wrapf(ErrConfig, "darknet height must be positive, got %g", p.Height)
	case p.Workers < 0:
		return errors.Wrapf(ErrConfig, "darknet workers must not be negative, got %d", p.Workers)
	}
	return nil
}

// Head names of the keypoint model, in output order.
const (
	HeadHeatmap   = "hm_cen"
	HeadOffset    = "cen_offset"
	HeadDirection = "direction"
	HeadZ         = "z_coor"
	HeadDim       = "dim"
)

// NumHeads is the number of output heads of the keypoint model.
const NumHeads = 5

// Head is one named output head of the keypoint model.
type Head struct {
	Name     string `json:"name" yaml:"name"`
	Channels int    `json:"channels" yaml:"channels"`
}

// ResnetParams holds the SFA3D keypoint model parameters.
type ResnetParams struct {
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// PeakThreshold is the minimum heatmap score a keypoint must exceed.
	PeakThreshold float32 `json:"peak_thresh" yaml:"peak_thresh"`
	// InputSize is the BEV input (height, width).
	InputSize [2]int `json:"input_size" yaml:"input_size"`
	// HeatmapSize is the output grid (height, width).
	HeatmapSize [2]int `json:"hm_size" yaml:"hm_size"`
	// DownRatio is InputSize / HeatmapSize.
	DownRatio int `json:"down_ratio" yaml:"down_ratio"`
	// MaxObjects is the training-time object cap per frame.
	MaxObjects int `json:"max_objects" yaml:"max_objects"`
	// TopK is the number of keypoints decoded per frame.
	TopK int `json:"top_k" yaml:"top_k"`
	// Classes selects the class planes reported as detections, in emission order. Empty reports
	// every class.
	Classes []int `json:"classes" yaml:"classes"`

	ImagenetPretrained bool `json:"imagenet_pretrained" yaml:"imagenet_pretrained"`
	HeadConv           int  `json:"head_conv" yaml:"head_conv"`
	NumClasses         int  `json:"num_classes" yaml:"num_classes"`
	NumCenterOffset    int  `json:"num_center_offset" yaml:"num_center_offset"`
	NumZ               int  `json:"num_z" yaml:"num_z"`
	NumDim             int  `json:"num_dim" yaml:"num_dim"`
	NumDirection       int  `json:"num_direction" yaml:"num_direction"`
	NumInputFeatures   int  `json:"num_input_features" yaml:"num_input_features"`

	// Heads is derived from the channel counts by BuildConfig.
	Heads [NumHeads]Head `json:"heads" yaml:"-"`
}

func (ResnetParams) isParams() {}

// Family returns FamilyResnet.
func (ResnetParams) Family() Family { return FamilyResnet }

// DeriveHeads returns the head layout for the configured channel counts.
func (p ResnetParams) DeriveHeads() [NumHeads]Head {
	return [NumHeads]Head{
		{Name: HeadHeatmap, Channels: p.NumClasses},
		{Name: HeadOffset, Channels: p.NumCenterOffset},
		{Name: HeadDirection, Channels: p.NumDirection},
		{Name: HeadZ, Channels: p.NumZ},
		{Name: HeadDim, Channels: p.NumDim},
	}
}

// EmittedClasses returns the class planes reported as detections, in emission order.
func (p ResnetParams) EmittedClasses() []int {
	if len(p.Classes) > 0 {
		return append([]int(nil), p.Classes...)
	}
	all := make([]int, p.NumClasses)
	for i := range all {
		all[i] = i
	}
	return all
}

// HeadChannels returns the channel count of the named head.
func (p ResnetParams) HeadChannels(name string) (int, bool) {
	for _, h := range p.Heads {
		if h.Name == name {
			return h.Channels, true
		}
	}
	return 0, false
}

// Validate checks the keypoint model fields.
func (p ResnetParams) Validate() error {
	switch {
	case p.BatchSize <= 0:
		return errors.Wrapf(ErrConfig, "fpn_resnet batch_size must be positive, got %d", p.BatchSize)
	case p.PeakThreshold < 0 || p.PeakThreshold > 1:
		return errors.Wrapf(ErrConfig, "fpn_resnet peak_thresh must be in [0,1], got %g", p.PeakThreshold)
	case p.DownRatio <= 0:
		return errors.Wrapf(ErrConfig, "fpn_resnet down_ratio must be positive, got %d", p.DownRatio)
	case p.TopK <= 0:
		return errors.Wrapf(ErrConfig, "fpn_resnet top_k must be positive, got %d", p.TopK)
	case p.NumClasses <= 0:
		return errors.Wrapf(ErrConfig, "fpn_resnet num_classes must be positive, got %d", p.NumClasses)
	case p.NumCenterOffset != 2 || p.NumDirection != 2 || p.NumZ != 1 || p.NumDim != 3:
		return errors.Wrapf(ErrConfig,
			"fpn_resnet head channels must be offset=2 direction=2 z=1 dim=3, got %d/%d/%d/%d",
			p.NumCenterOffset, p.NumDirection, p.NumZ, p.NumDim)
	}
	seen := make(map[int]bool, len(p.Classes))
	for _, c := range p.Classes {
		if c < 0 || c >= p.NumClasses {
			return errors.Wrapf(ErrConfig, "fpn_resnet class %d outside [0, %d)", c, p.NumClasses)
		}
		if seen[c] {
			return errors.Wrapf(ErrConfig, "fpn_resnet class %d selected twice", c)
		}
		seen[c] = true
	}
	if p.Heads != p.DeriveHeads() {
		return errors.Wrapf(ErrConfig, "fpn_resnet heads %v do not match the channel counts", p.Heads)
	}
	return nil
}
