package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"platetiler/geometry"
	"platetiler/plate"
	"platetiler/pyramid"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Directory      string `toml:"directory"`
		LogDir         string `toml:"logDir"`
		OutputTerminal bool   `toml:"outputTerminal"`
		Format         string `toml:"format"`
		Compress       string `toml:"compress"`
		Template       string `toml:"template"`
	} `toml:"output"`
	Task struct {
		Workers int  `toml:"workers"`
		Resume  bool `toml:"resume"`
	} `toml:"task"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Pyramid struct {
		Name       string    `toml:"name"`
		Projection string    `toml:"projection"`
		Level      uint32    `toml:"level"`
		Bounds     []float64 `toml:"bounds"`
		Geojson    string    `toml:"geojson"`
		// Mercator 瓦片范围 [minX, minY, maxX, maxY], 以 level 为准
		Tiles []uint32 `toml:"tiles"`
	} `toml:"pyramid"`
	Sources []SourceConf `toml:"sources"`
	Plate   struct {
		Mode      string `toml:"mode"`
		Directory string `toml:"directory"`
	} `toml:"plate"`
}

// SourceConf 数据源
type SourceConf struct {
	Kind   string    `toml:"kind"`
	Path   string    `toml:"path"`
	Width  int       `toml:"width"`
	Height int       `toml:"height"`
	Bounds []float64 `toml:"bounds"`
}

// Region 数据源覆盖范围, 未设置时为全天区
func (s SourceConf) Region() (geometry.Region, error) {
	return boundsRegion(s.Bounds)
}

// boundsRegion 解析 [west, south, east, north]
func boundsRegion(b []float64) (geometry.Region, error) {
	switch len(b) {
	case 0:
		return geometry.WholeSky, nil
	case 4:
		return geometry.NewRegion(b[0], b[1], b[2], b[3])
	}
	return geometry.Region{}, errors.Errorf("bounds needs 4 values (west, south, east, north), got %d", len(b))
}

// InitConf 初始化配置
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist\n", cfgFile)
		os.Exit(1)
	}
	c, err := loadConf(cfgFile)
	if err != nil {
		fmt.Printf("配置文件解析失败: %s\n", err)
		os.Exit(1)
	}
	conf = c
}

func loadConf(cfgFile string) (*Conf, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(cfgFile)
	v.AutomaticEnv() // read in environment variables that match
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file(%s)", v.ConfigFileUsed())
	}
	// 设置默认值
	v.SetDefault("app.version", "v 0.1.0")
	v.SetDefault("app.title", "Plate Tiler")
	v.SetDefault("output.format", "files")
	v.SetDefault("output.directory", "output")
	v.SetDefault("output.compress", "none")
	v.SetDefault("output.template", pyramid.DefaultTemplate)
	v.SetDefault("task.workers", 4)
	v.SetDefault("breakPoint.saveFilePath", "breakpoint")
	v.SetDefault("pyramid.name", "pyramid")
	v.SetDefault("pyramid.projection", "toast")
	v.SetDefault("plate.mode", "none")

	var c Conf
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Conf) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no [[sources]] configured")
	}
	if _, err := pyramid.ParseProjection(c.Pyramid.Projection); err != nil {
		return err
	}
	if c.Pyramid.Level > geometry.MaxLevel {
		return errors.Wrapf(pyramid.ErrInvalidLevel, "pyramid.level %d", c.Pyramid.Level)
	}
	if _, err := pyramid.ParseCompression(c.Output.Compress); err != nil {
		return err
	}
	switch c.Output.Format {
	case "files", "mbtiles":
	default:
		return errors.Errorf("unknown output.format %q", c.Output.Format)
	}
	switch c.Plate.Mode {
	case "none":
	case "single":
		if c.Pyramid.Level+1 > plate.MaxLevels {
			return errors.Wrapf(plate.ErrTooManyLevels, "single plate holds levels 0..%d, pyramid.level is %d; use plate.mode = \"multi\"",
				plate.MaxLevels-1, c.Pyramid.Level)
		}
	case "multi":
		if sp := plate.NewShardingPlan(c.Pyramid.Level); sp.LevelsPerPlate > plate.MaxLevels {
			return errors.Wrapf(plate.ErrTooManyLevels, "pyramid.level %d needs %d levels per shard", c.Pyramid.Level, sp.LevelsPerPlate)
		}
	default:
		return errors.Errorf("unknown plate.mode %q", c.Plate.Mode)
	}
	if n := len(c.Pyramid.Tiles); n != 0 && n != 4 {
		return errors.Errorf("pyramid.tiles needs 4 values (minX, minY, maxX, maxY), got %d", n)
	}
	// 同一类型的瓦片共用输出路径, 每种类型只能有一个数据源
	kinds := make(map[pyramid.Kind]int)
	for i, s := range c.Sources {
		kind, err := pyramid.ParseKind(s.Kind)
		if err != nil {
			return errors.Wrapf(err, "sources[%d]", i)
		}
		if j, ok := kinds[kind]; ok {
			return errors.Errorf("sources[%d] and sources[%d] are both %s sources", j, i, kind)
		}
		kinds[kind] = i
		if s.Path == "" {
			return errors.Errorf("sources[%d]: path is empty", i)
		}
		if _, err := s.Region(); err != nil {
			return errors.Wrapf(err, "sources[%d]", i)
		}
	}
	return nil
}

// outputRoot 当前金字塔的输出目录
func (c *Conf) outputRoot() string {
	return filepath.Join(c.Output.Directory, c.Pyramid.Name)
}
