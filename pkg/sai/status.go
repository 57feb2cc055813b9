package sai

import (
	"errors"
	"fmt"
)

// Status is the result code of a generic API call. Status implements error
// so callers can match a specific code with errors.Is.
type Status int32

const (
	StatusSuccess                   Status = 0
	StatusFailure                   Status = -1
	StatusNotSupported              Status = -2
	StatusNoMemory                  Status = -3
	StatusInsufficientResources     Status = -4
	StatusInvalidParameter          Status = -5
	StatusItemAlreadyExists         Status = -6
	StatusItemNotFound              Status = -7
	StatusBufferOverflow            Status = -8
	StatusInvalidPortNumber         Status = -9
	StatusInvalidPortMember         Status = -10
	StatusInvalidVlanID             Status = -11
	StatusUninitialized             Status = -12
	StatusTableFull                 Status = -13
	StatusMandatoryAttributeMissing Status = -14
	StatusNotImplemented            Status = -15
	StatusAddrNotFound              Status = -16
	StatusObjectInUse               Status = -17
	StatusInvalidObjectType         Status = -18
	StatusInvalidObjectID           Status = -19
	StatusInvalidAttrValue          Status = -20
	StatusUnknownAttribute          Status = -21
)

var statusNames = map[Status]string{
	StatusSuccess:                   "success",
	StatusFailure:                   "failure",
	StatusNotSupported:              "not supported",
	StatusNoMemory:                  "no memory",
	StatusInsufficientResources:     "insufficient resources",
	StatusInvalidParameter:          "invalid parameter",
	StatusItemAlreadyExists:         "item already exists",
	StatusItemNotFound:              "item not found",
	StatusBufferOverflow:            "buffer overflow",
	StatusInvalidPortNumber:         "invalid port number",
	StatusInvalidPortMember:         "invalid port member",
	StatusInvalidVlanID:             "invalid vlan id",
	StatusUninitialized:             "uninitialized",
	StatusTableFull:                 "table full",
	StatusMandatoryAttributeMissing: "mandatory attribute missing",
	StatusNotImplemented:            "not implemented",
	StatusAddrNotFound:              "address not found",
	StatusObjectInUse:               "object in use",
	StatusInvalidObjectType:         "invalid object type",
	StatusInvalidObjectID:           "invalid object id",
	StatusInvalidAttrValue:          "invalid attribute value",
	StatusUnknownAttribute:          "unknown attribute",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

func (s Status) Error() string {
	return s.String()
}

// StatusOf returns the Status carried by err. A nil error is StatusSuccess,
// an error without a Status in its chain is StatusFailure.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusFailure
}
