package security

import (
	"fmt"
	"strings"
)

// Permissions represents the access rights of the P entry in an encryption dictionary
type Permissions struct {
	Print            bool // Bit 3
	Modify           bool // Bit 4
	Copy             bool // Bit 5
	Annotate         bool // Bit 6
	FillForms        bool // Bit 9
	Extract          bool // Bit 10
	Assemble         bool // Bit 11
	PrintHighQuality bool // Bit 12
}

// permissionBits maps operation names to their flag in P, in bit order
var permissionBits = []struct {
	name string
	bit  int32
	get  func(Permissions) bool
}{
	{"print", 0x04, func(p Permissions) bool { return p.Print }},
	{"modify", 0x08, func(p Permissions) bool { return p.Modify }},
	{"copy", 0x10, func(p Permissions) bool { return p.Copy }},
	{"annotate", 0x20, func(p Permissions) bool { return p.Annotate }},
	{"fill_forms", 0x200, func(p Permissions) bool { return p.FillForms }},
	{"extract", 0x400, func(p Permissions) bool { return p.Extract }},
	{"assemble", 0x800, func(p Permissions) bool { return p.Assemble }},
	{"print_high_quality", 0x1000, func(p Permissions) bool { return p.PrintHighQuality }},
}

// NewPermissions decodes a signed 32-bit P value
func NewPermissions(perms int32) Permissions {
	return Permissions{
		Print:            perms&0x04 != 0,
		Modify:           perms&0x08 != 0,
		Copy:             perms&0x10 != 0,
		Annotate:         perms&0x20 != 0,
		FillForms:        perms&0x200 != 0,
		Extract:          perms&0x400 != 0,
		Assemble:         perms&0x800 != 0,
		PrintHighQuality: perms&0x1000 != 0,
	}
}

// ToInt32 encodes the permissions as a P value with the reserved bits set
func (p Permissions) ToInt32() int32 {
	// bits 1-2 and 7-8 are reserved as 1, bits 13-32 as 1
	perms := int32(0x03 | 0xC0)
	perms |= int32(-8192)

	for _, pb := range permissionBits {
		if pb.get(p) {
			perms |= pb.bit
		}
	}
	return perms
}

// IsRestricted returns true if any operation is denied
func (p Permissions) IsRestricted() bool {
	return len(p.Denied()) > 0
}

// Allowed returns the names of the granted operations
func (p Permissions) Allowed() []string {
	var allowed []string
	for _, pb := range permissionBits {
		if pb.get(p) {
			allowed = append(allowed, pb.name)
		}
	}
	return allowed
}

// Denied returns the names of the denied operations
func (p Permissions) Denied() []string {
	var denied []string
	for _, pb := range permissionBits {
		if !pb.get(p) {
			denied = append(denied, pb.name)
		}
	}
	return denied
}

func (p Permissions) String() string {
	allowed := p.Allowed()
	switch {
	case len(allowed) == 0:
		return "no permissions"
	case !p.IsRestricted():
		return "all permissions"
	default:
		return "allowed: " + strings.Join(allowed, ", ")
	}
}

// EncryptionInfo describes the security handler of an encrypted document
type EncryptionInfo struct {
	Version     int         `json:"version"`
	Revision    int         `json:"revision"`
	KeyLength   int         `json:"key_length_bits"`
	Algorithm   string      `json:"algorithm"`
	Permissions Permissions `json:"permissions"`
}

// NewEncryptionInfo derives the description from the V, R, Length and P entries.
// aes reports whether a V4 handler uses the AESV2 crypt filter for streams.
func NewEncryptionInfo(v, r, length int, aes bool, perms int32) *EncryptionInfo {
	info := &EncryptionInfo{
		Version:     v,
		Revision:    r,
		KeyLength:   length,
		Permissions: NewPermissions(perms),
	}

	switch {
	case v == 1:
		info.Algorithm = "RC4"
		info.KeyLength = 40
	case v == 4 && aes:
		info.Algorithm = "AES"
		info.KeyLength = 128
	case v >= 5:
		info.Algorithm = "AES"
		info.KeyLength = 256
	default:
		info.Algorithm = "RC4"
	}
	if info.KeyLength == 0 {
		info.KeyLength = 40
	}

	return info
}

func (e *EncryptionInfo) String() string {
	return fmt.Sprintf("%s-%d (V%d R%d, %s)", e.Algorithm, e.KeyLength, e.Version, e.Revision, e.Permissions)
}
