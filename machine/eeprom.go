package machine

import (
	"fmt"
	"hash/crc32"

	"github.com/nf/occ/component"
)

const (
	EEPROMSize     = 4096
	EEPROMDataSize = 256
)

// EEPROM holds the firmware the machine booted from and a small scratch
// area the firmware may write.
type EEPROM struct {
	code []byte
	data []byte
}

// SetCode replaces the firmware image.
func (e *EEPROM) SetCode(b []byte) { e.code = append([]byte(nil), b...) }

func (e *EEPROM) Code() []byte { return e.code }
func (e *EEPROM) Data() []byte { return e.data }

// SetData replaces the scratch area.
func (e *EEPROM) SetData(b []byte) error {
	if len(b) > EEPROMDataSize {
		return component.ErrOutOfMemory
	}
	e.data = append([]byte(nil), b...)
	return nil
}

func (e *EEPROM) Checksum() string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(e.code))
}

func optBytes(b []byte) []any {
	if b == nil {
		return component.Results(nil)
	}
	return component.Results(string(b))
}

func registerEEPROM(r *component.Registry, e *EEPROM) string {
	c := component.New("eeprom")
	c.Add("get", component.Direct|component.Getter, func(component.Args) ([]any, error) {
		return optBytes(e.code), nil
	}).
		Add("set", 0, component.Unsupported).
		Add("getLabel", component.Direct|component.Getter, component.Const("EEPROM")).
		Add("setLabel", 0, component.Unsupported).
		Add("getSize", component.Direct|component.Getter, component.Const(EEPROMSize)).
		Add("getDataSize", component.Direct|component.Getter, component.Const(EEPROMDataSize)).
		Add("getData", component.Direct|component.Getter, func(component.Args) ([]any, error) {
			return optBytes(e.data), nil
		}).
		Add("setData", component.Direct|component.Setter, func(a component.Args) ([]any, error) {
			s, err := a.CheckString(0)
			if err != nil {
				return nil, err
			}
			return nil, e.SetData([]byte(s))
		}).
		Add("getChecksum", component.Direct|component.Getter, func(component.Args) ([]any, error) {
			return component.Results(e.Checksum()), nil
		})
	r.Register(c)
	return c.Address
}
