package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/playgcn/model"
	"github.com/rushteam/playgcn/pkg/logging"
)

// EnvPrefix 是环境变量前缀，PLAYGCN_TRAIN_EPOCHS 对应 train.epochs。
const EnvPrefix = "PLAYGCN_"

// Settings 是应用配置。优先级：环境变量 > 配置文件 > 默认值。
type Settings struct {
	Data      DataSettings      `koanf:"data"`
	Feature   FeatureSettings   `koanf:"feature"`
	Train     model.TrainConfig `koanf:"train"`
	Recommend RecommendSettings `koanf:"recommend"`
	Log       logging.Config    `koanf:"log"`
	Metrics   MetricsSettings   `koanf:"metrics"`
}

type DataSettings struct {
	// Path 是 CSV 数据集路径
	Path          string `koanf:"path" validate:"required"`
	SkipMalformed bool   `koanf:"skip_malformed"`
}

type FeatureSettings struct {
	// Scaler: none / zscore / minmax
	Scaler string `koanf:"scaler" validate:"oneof=none zscore minmax"`
}

type RecommendSettings struct {
	K int `koanf:"k" validate:"gt=0"`
	// Pipeline 是可选的 YAML pipeline 配置路径，为空时使用默认 pipeline
	Pipeline string `koanf:"pipeline"`
	// Concurrency 是批量推荐的并发上限
	Concurrency int `koanf:"concurrency" validate:"gte=1"`
}

type MetricsSettings struct {
	// Textfile 非空时，运行结束后把指标写入该文件（node_exporter textfile 格式）
	Textfile string `koanf:"textfile"`
}

// DefaultSettings 返回默认配置。
func DefaultSettings() Settings {
	return Settings{
		Feature:   FeatureSettings{Scaler: "zscore"},
		Train:     model.DefaultTrainConfig(),
		Recommend: RecommendSettings{K: 10, Concurrency: 4},
		Log:       logging.Config{Level: "info", Format: "console"},
	}
}

// Load 依次加载默认值、YAML 文件（path 为空时跳过）与 PLAYGCN_* 环境变量，
// 再应用 overrides（例如命令行参数），最后校验。
func Load(path string, overrides ...func(*Settings)) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	for _, o := range overrides {
		o(s)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 按 struct tag 校验配置。
func (s *Settings) Validate() error {
	return validate.Struct(s)
}

var envSections = map[string]bool{
	"data":      true,
	"feature":   true,
	"train":     true,
	"recommend": true,
	"log":       true,
	"metrics":   true,
}

// envTransformFunc 把环境变量名映射为 koanf 路径：
//
//	PLAYGCN_TRAIN_LEARNING_RATE -> train.learning_rate
//	PLAYGCN_DATA_PATH           -> data.path
//
// 未知分组返回空字符串，koanf 会忽略该变量。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" || !envSections[section] {
		return ""
	}
	return section + "." + rest
}
