package switchapi

import "fmt"

// Status is the result code of a driver primitive.
type Status int32

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusInvalidParameter
	StatusNoMemory
	StatusItemNotFound
	StatusItemAlreadyExists
	StatusInvalidHandle
	StatusUnsupportedType
	StatusResourceInUse
	StatusInsufficientResources
	StatusNotSupported
	StatusHWFailure
	StatusInvalidVlanID
	StatusPortInUse
	StatusUninitialized
)

var statusNames = map[Status]string{
	StatusSuccess:               "success",
	StatusFailure:               "failure",
	StatusInvalidParameter:      "invalid parameter",
	StatusNoMemory:              "no memory",
	StatusItemNotFound:          "item not found",
	StatusItemAlreadyExists:     "item already exists",
	StatusInvalidHandle:         "invalid handle",
	StatusUnsupportedType:       "unsupported type",
	StatusResourceInUse:         "resource in use",
	StatusInsufficientResources: "insufficient resources",
	StatusNotSupported:          "not supported",
	StatusHWFailure:             "hardware failure",
	StatusInvalidVlanID:         "invalid vlan id",
	StatusPortInUse:             "port in use",
	StatusUninitialized:         "uninitialized",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("switch_status(%d)", int32(s))
}

func (s Status) Error() string {
	return "switchapi: " + s.String()
}
