package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/hexpad/hardware/lcd"
	"github.com/temoto/hexpad/helpers"
	"github.com/temoto/hexpad/log2"
	tele_config "github.com/temoto/hexpad/tele/config"
)

const (
	DriverCdev   = "cdev"
	DriverPeriph = "periph"
	DriverRpio   = "rpio"
	DriverMock   = "mock"

	DefaultPinChip = "/dev/gpiochip0"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		Keypad struct {
			Driver     string   `hcl:"driver"`
			PinChip    string   `hcl:"pin_chip"`
			Columns    []string `hcl:"columns"`
			Rows       []string `hcl:"rows"`
			DebounceMs int      `hcl:"debounce_ms"`
			IdleMs     int      `hcl:"idle_ms"`
		} `hcl:"keypad"`
		HD44780 struct {
			Driver   string     `hcl:"driver"`
			PinChip  string     `hcl:"pin_chip"`
			Pinmap   lcd.PinMap `hcl:"pinmap"`
			SettleMs int        `hcl:"settle_ms"`
		} `hcl:"hd44780"`
	} `hcl:"hardware"`

	LogDebug bool               `hcl:"log_debug"`
	Tele     tele_config.Config `hcl:"tele"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Validate fills defaults and reports every problem at once.
func (c *Config) Validate() error {
	errs := make([]error, 0, 4)

	kp := &c.Hardware.Keypad
	if kp.Driver == "" {
		kp.Driver = DriverCdev
	}
	if kp.PinChip == "" {
		kp.PinChip = DefaultPinChip
	}
	switch kp.Driver {
	case DriverCdev, DriverPeriph, DriverRpio:
		if len(kp.Columns) != 4 || len(kp.Rows) != 4 {
			errs = append(errs, errors.NotValidf("config: hardware.keypad columns=%d rows=%d must be 4", len(kp.Columns), len(kp.Rows)))
		}
	case DriverMock:
	default:
		errs = append(errs, errors.NotValidf("config: unknown hardware.keypad.driver=\"%s\" valid: cdev, periph, rpio, mock", kp.Driver))
	}
	if kp.DebounceMs < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.keypad.debounce_ms=%d", kp.DebounceMs))
	}
	if kp.IdleMs < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.keypad.idle_ms=%d", kp.IdleMs))
	}

	hd := &c.Hardware.HD44780
	if hd.Driver == "" {
		hd.Driver = DriverCdev
	}
	if hd.PinChip == "" {
		hd.PinChip = DefaultPinChip
	}
	switch hd.Driver {
	case DriverCdev:
		if _, err := hd.Pinmap.Offsets(); err != nil {
			errs = append(errs, errors.Annotate(err, "config: hardware.hd44780.pinmap"))
		}
	case DriverMock:
	default:
		errs = append(errs, errors.NotValidf("config: unknown hardware.hd44780.driver=\"%s\" valid: cdev, mock", hd.Driver))
	}
	if hd.SettleMs < 0 {
		errs = append(errs, errors.NotValidf("config: hardware.hd44780.settle_ms=%d", hd.SettleMs))
	}

	if c.Tele.Enabled && c.Tele.MqttBroker == "" {
		errs = append(errs, errors.NotValidf("config: tele.enable=true mqtt_broker=empty"))
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
