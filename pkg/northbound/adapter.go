// Package northbound exposes the VLAN API over HTTP. The Adapter turns
// request shaped values into attribute lists, the Component serves them and
// the Client talks to a running server.
package northbound

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

var vlanAttrNames = map[string]sai.AttrID{
	"member_list":           sai.VlanAttrMemberList,
	"max_learned_addresses": sai.VlanAttrMaxLearnedAddresses,
	"stp_instance":          sai.VlanAttrStpInstance,
	"learn_disable":         sai.VlanAttrLearnDisable,
	"meta_data":             sai.VlanAttrMetaData,
}

var memberAttrNames = map[string]sai.AttrID{
	"vlan_id":      sai.VlanMemberAttrVlanID,
	"port_id":      sai.VlanMemberAttrPortID,
	"tagging_mode": sai.VlanMemberAttrTaggingMode,
}

// DefaultCounters is what a stats request without counters returns. The
// aggregate packet counters are left out since the hardware cannot
// produce them.
var DefaultCounters = lo.Filter(sai.AllVlanStats(), func(s sai.VlanStat, _ int) bool {
	return s != sai.VlanStatInPackets && s != sai.VlanStatOutPackets
})

type Adapter struct {
	api    sai.VlanAPI
	ports  switchapi.PortResolver
	logger *slog.Logger
}

func NewAdapter(api sai.VlanAPI, ports switchapi.PortResolver) *Adapter {
	return &Adapter{
		api:    api,
		ports:  ports,
		logger: logger.Get(logger.Northbound),
	}
}

func (a *Adapter) Ports() []switchapi.Port {
	return a.ports.Ports()
}

func (a *Adapter) portNames() map[switchapi.Handle]string {
	return lo.SliceToMap(a.ports.Ports(), func(p switchapi.Port) (switchapi.Handle, string) {
		return p.Handle, p.Name
	})
}

func (a *Adapter) portName(h switchapi.Handle) string {
	return nameOr(a.portNames(), h)
}

func nameOr(names map[switchapi.Handle]string, h switchapi.Handle) string {
	if name, ok := names[h]; ok {
		return name
	}
	return h.String()
}

func (a *Adapter) CreateVlan(ctx context.Context, id uint16) error {
	return a.api.CreateVlan(ctx, sai.VlanID(id))
}

func (a *Adapter) RemoveVlan(ctx context.Context, id uint16) error {
	return a.api.RemoveVlan(ctx, sai.VlanID(id))
}

func (a *Adapter) Vlan(ctx context.Context, id uint16) (*VlanResponse, error) {
	members, err := a.api.GetVlanMembers(ctx, sai.VlanID(id))
	if err != nil {
		return nil, err
	}

	names := a.portNames()
	resp := &VlanResponse{VlanID: id, Members: make([]Member, 0, len(members))}
	for _, m := range members {
		h := switchapi.Handle(m.Port)
		resp.Members = append(resp.Members, Member{
			ID:          m.ID.String(),
			VlanID:      id,
			Port:        nameOr(names, h),
			PortHandle:  h.String(),
			TaggingMode: m.TaggingMode.String(),
		})
	}
	return resp, nil
}

func (a *Adapter) Member(ctx context.Context, id sai.ObjectID) (*Member, error) {
	attrs := []sai.Attribute{
		{ID: sai.VlanMemberAttrVlanID},
		{ID: sai.VlanMemberAttrPortID},
		{ID: sai.VlanMemberAttrTaggingMode},
	}
	if err := a.api.GetVlanMemberAttribute(ctx, id, attrs); err != nil {
		return nil, err
	}

	vlan, _ := attrs[0].Value.(sai.U16)
	port, _ := attrs[1].Value.(sai.OID)
	mode, _ := attrs[2].Value.(sai.TaggingMode)
	h := switchapi.Handle(port)

	return &Member{
		ID:          id.String(),
		VlanID:      uint16(vlan),
		Port:        a.portName(h),
		PortHandle:  h.String(),
		TaggingMode: mode.String(),
	}, nil
}

func (a *Adapter) CreateMember(ctx context.Context, req CreateMemberRequest) (*Member, error) {
	port, err := a.ports.PortByName(req.Port)
	if err != nil {
		return nil, fmt.Errorf("port %q: %v: %w", req.Port, err, sai.StatusInvalidPortNumber)
	}
	mode, err := sai.ParseTaggingMode(req.TaggingMode)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, sai.StatusInvalidAttrValue)
	}

	id, err := a.api.CreateVlanMember(ctx, sai.MemberAttributes(sai.VlanID(req.VlanID), sai.ObjectID(port), mode))
	if err != nil {
		return nil, err
	}
	return a.Member(ctx, id)
}

func (a *Adapter) RemoveMember(ctx context.Context, id sai.ObjectID) error {
	return a.api.RemoveVlanMember(ctx, id)
}

func (a *Adapter) Stats(ctx context.Context, id uint16, names []string) (*StatsResponse, error) {
	counters, err := parseCounters(names)
	if err != nil {
		return nil, err
	}

	values, err := a.api.GetVlanStats(ctx, sai.VlanID(id), counters)
	if err != nil {
		return nil, err
	}

	resp := &StatsResponse{VlanID: id, Counters: make(map[string]uint64, len(counters))}
	for i, c := range counters {
		resp.Counters[c.String()] = values[i]
	}
	return resp, nil
}

func (a *Adapter) ClearStats(ctx context.Context, id uint16, names []string) error {
	counters, err := parseCounters(names)
	if err != nil {
		return err
	}
	return a.api.ClearVlanStats(ctx, sai.VlanID(id), counters)
}

func (a *Adapter) SetVlanAttribute(ctx context.Context, id uint16, req AttributeRequest) error {
	attr, err := parseAttribute(vlanAttrNames, req)
	if err != nil {
		return err
	}
	return a.api.SetVlanAttribute(ctx, sai.VlanID(id), attr)
}

func (a *Adapter) SetMemberAttribute(ctx context.Context, id sai.ObjectID, req AttributeRequest) error {
	attr, err := parseAttribute(memberAttrNames, req)
	if err != nil {
		return err
	}
	return a.api.SetVlanMemberAttribute(ctx, id, attr)
}

func parseCounters(names []string) ([]sai.VlanStat, error) {
	if len(names) == 0 {
		return DefaultCounters, nil
	}
	out := make([]sai.VlanStat, 0, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			c, err := sai.ParseVlanStat(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("%v: %w", err, sai.StatusInvalidParameter)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func parseAttribute(names map[string]sai.AttrID, req AttributeRequest) (*sai.Attribute, error) {
	id, ok := names[req.Attribute]
	if !ok {
		return nil, fmt.Errorf("attribute %q: %w", req.Attribute, sai.StatusUnknownAttribute)
	}

	var value sai.Value
	switch v := req.Value.(type) {
	case bool:
		value = sai.Bool(v)
	case float64:
		if v < 0 || v != float64(uint32(v)) {
			return nil, fmt.Errorf("attribute %s value %v: %w", req.Attribute, v, sai.StatusInvalidAttrValue)
		}
		value = sai.U32(v)
	case string:
		mode, err := sai.ParseTaggingMode(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %v: %w", req.Attribute, err, sai.StatusInvalidAttrValue)
		}
		value = mode
	default:
		return nil, fmt.Errorf("attribute %s value %v: %w", req.Attribute, req.Value, sai.StatusInvalidAttrValue)
	}
	return &sai.Attribute{ID: id, Value: value}, nil
}

// ParseMemberID accepts the "oid:0x..." form printed in responses as well as
// a bare decimal or 0x-prefixed number.
func ParseMemberID(s string) (sai.ObjectID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "oid:"), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("member id %q: %w", s, sai.StatusInvalidObjectID)
	}
	return sai.ObjectID(n), nil
}

func parseVlanID(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("vlan %q: %w", s, sai.StatusInvalidVlanID)
	}
	return uint16(n), nil
}

// HTTPStatus maps an API error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch sai.StatusOf(err) {
	case sai.StatusSuccess:
		return http.StatusOK
	case sai.StatusItemNotFound, sai.StatusAddrNotFound:
		return http.StatusNotFound
	case sai.StatusInvalidParameter,
		sai.StatusInvalidVlanID,
		sai.StatusInvalidPortNumber,
		sai.StatusInvalidPortMember,
		sai.StatusInvalidObjectType,
		sai.StatusInvalidObjectID,
		sai.StatusInvalidAttrValue,
		sai.StatusUnknownAttribute,
		sai.StatusMandatoryAttributeMissing:
		return http.StatusBadRequest
	case sai.StatusItemAlreadyExists, sai.StatusObjectInUse:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
