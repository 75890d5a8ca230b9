package journal

import "strings"

// Reason is the change-reason bitmask carried by a journal record.
// Bits accumulate across writes to the same file until a record with
// ReasonClose is emitted, so a single record routinely carries several
// reasons.
type Reason uint32

const (
	ReasonDataOverwrite      Reason = 0x00000001
	ReasonDataExtend         Reason = 0x00000002
	ReasonDataTruncation     Reason = 0x00000004
	ReasonNamedDataOverwrite Reason = 0x00000010
	ReasonNamedDataExtend    Reason = 0x00000020
	ReasonNamedDataTruncate  Reason = 0x00000040
	ReasonFileCreate         Reason = 0x00000100
	ReasonFileDelete         Reason = 0x00000200
	ReasonEAChange           Reason = 0x00000400
	ReasonSecurityChange     Reason = 0x00000800
	ReasonRenameOldName      Reason = 0x00001000
	ReasonRenameNewName      Reason = 0x00002000
	ReasonIndexableChange    Reason = 0x00004000
	ReasonBasicInfoChange    Reason = 0x00008000
	ReasonHardLinkChange     Reason = 0x00010000
	ReasonCompressionChange  Reason = 0x00020000
	ReasonEncryptionChange   Reason = 0x00040000
	ReasonObjectIDChange     Reason = 0x00080000
	ReasonReparsePointChange Reason = 0x00100000
	ReasonStreamChange       Reason = 0x00200000
	ReasonTransactedChange   Reason = 0x00400000
	ReasonIntegrityChange    Reason = 0x00800000
	ReasonClose              Reason = 0x80000000
)

var reasonNames = []struct {
	bit  Reason
	name string
}{
	{ReasonDataOverwrite, "data-overwrite"},
	{ReasonDataExtend, "data-extend"},
	{ReasonDataTruncation, "data-truncation"},
	{ReasonNamedDataOverwrite, "named-data-overwrite"},
	{ReasonNamedDataExtend, "named-data-extend"},
	{ReasonNamedDataTruncate, "named-data-truncation"},
	{ReasonFileCreate, "file-create"},
	{ReasonFileDelete, "file-delete"},
	{ReasonEAChange, "ea-change"},
	{ReasonSecurityChange, "security-change"},
	{ReasonRenameOldName, "rename-old-name"},
	{ReasonRenameNewName, "rename-new-name"},
	{ReasonIndexableChange, "indexable-change"},
	{ReasonBasicInfoChange, "basic-info-change"},
	{ReasonHardLinkChange, "hard-link-change"},
	{ReasonCompressionChange, "compression-change"},
	{ReasonEncryptionChange, "encryption-change"},
	{ReasonObjectIDChange, "object-id-change"},
	{ReasonReparsePointChange, "reparse-point-change"},
	{ReasonStreamChange, "stream-change"},
	{ReasonTransactedChange, "transacted-change"},
	{ReasonIntegrityChange, "integrity-change"},
	{ReasonClose, "close"},
}

// Has reports whether all bits in flag are set.
func (r Reason) Has(flag Reason) bool {
	return r&flag == flag
}

// Names returns the set bits as stable, human-readable names, lowest
// bit first. Unknown bits are ignored.
func (r Reason) Names() []string {
	var out []string
	for _, rn := range reasonNames {
		if r&rn.bit != 0 {
			out = append(out, rn.name)
		}
	}
	return out
}

func (r Reason) String() string {
	if r == 0 {
		return "none"
	}
	names := r.Names()
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "|")
}
