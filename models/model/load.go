package model

import (
	"os"

	"github.com/nvr-ai/go-bev/bev"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// configFile is the YAML document accepted by LoadConfig. Every field except Name is an
// override of the resolved default; absent fields keep the default.
type configFile struct {
	Name Name `yaml:"name"`

	LimX *bev.Range `yaml:"lim_x"`
	LimY *bev.Range `yaml:"lim_y"`
	LimZ *bev.Range `yaml:"lim_z"`
	LimR *bev.Range `yaml:"lim_r"`

	BEVWidth    *int `yaml:"bev_width"`
	BEVHeight   *int `yaml:"bev_height"`
	OutputWidth *int `yaml:"output_width"`

	ConfThreshold *float32 `yaml:"conf_thresh"`
	MinIoU        *float32 `yaml:"min_iou"`
	WeightsPath   *string  `yaml:"weights_path"`

	Darknet *darknetFile `yaml:"darknet"`
	Resnet  *resnetFile  `yaml:"fpn_resnet"`
}

type darknetFile struct {
	CfgFile      *string  `yaml:"cfg_file"`
	BatchSize    *int     `yaml:"batch_size"`
	NMSThreshold *float32 `yaml:"nms_thresh"`
	ClassID      *int     `yaml:"class_id"`
	Height       *float32 `yaml:"height"`
	Workers      *int     `yaml:"workers"`
}

type resnetFile struct {
	PeakThreshold *float32 `yaml:"peak_thresh"`
	DownRatio     *int     `yaml:"down_ratio"`
	MaxObjects    *int     `yaml:"max_objects"`
	TopK          *int     `yaml:"top_k"`
	Classes       *[]int   `yaml:"classes"`
	NumClasses    *int     `yaml:"num_classes"`
}

// LoadConfig reads a YAML configuration file and resolves it against the family defaults.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged, validated configuration.
//   - error: An error if the file cannot be read, ErrConfig if it is invalid.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig resolves a YAML document against the family defaults.
//
// Example document:
//
// ```yaml
//
//	name: fpn_resnet
//	lim_x: [0, 40]
//	conf_thresh: 0.4
//	fpn_resnet:
//	  top_k: 20
//
// ```
func ParseConfig(data []byte) (Config, error) {
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, errors.Wrapf(ErrConfig, "invalid yaml: %v", err)
	}

	cfg, err := BuildConfig(file.Name)
	if err != nil {
		return Config{}, err
	}

	setIf(&cfg.LimX, file.LimX)
	setIf(&cfg.LimY, file.LimY)
	setIf(&cfg.LimZ, file.LimZ)
	setIf(&cfg.LimR, file.LimR)
	setIf(&cfg.BEVWidth, file.BEVWidth)
	setIf(&cfg.BEVHeight, file.BEVHeight)
	setIf(&cfg.OutputWidth, file.OutputWidth)
	setIf(&cfg.ConfThreshold, file.ConfThreshold)
	setIf(&cfg.MinIoU, file.MinIoU)
	setIf(&cfg.WeightsPath, file.WeightsPath)

	switch p := cfg.Params.(type) {
	case DarknetParams:
		if file.Resnet != nil {
			return Config{}, errors.Wrapf(ErrConfig, "section fpn_resnet does not apply to %s", cfg.Name)
		}
		if o := file.Darknet; o != nil {
			setIf(&p.CfgFile, o.CfgFile)
			setIf(&p.BatchSize, o.BatchSize)
			setIf(&p.NMSThreshold, o.NMSThreshold)
			setIf(&p.ClassID, o.ClassID)
			setIf(&p.Height, o.Height)
			setIf(&p.Workers, o.Workers)
		}
		cfg.Params = p
	case ResnetParams:
		if file.Darknet != nil {
			return Config{}, errors.Wrapf(ErrConfig, "section darknet does not apply to %s", cfg.Name)
		}
		if o := file.Resnet; o != nil {
			setIf(&p.PeakThreshold, o.PeakThreshold)
			setIf(&p.DownRatio, o.DownRatio)
			setIf(&p.MaxObjects, o.MaxObjects)
			setIf(&p.TopK, o.TopK)
			setIf(&p.Classes, o.Classes)
			setIf(&p.NumClasses, o.NumClasses)
		}
		p.Heads = p.DeriveHeads()
		cfg.Params = p
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
