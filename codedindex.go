// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package exelib

// TableID identifies one of the CLI metadata tables.
type TableID int

const (
	TableModule TableID = iota
	TableTypeRef
	TableTypeDef
	TableFieldPtr
	TableField
	TableMethodPtr
	TableMethodDef
	TableParamPtr
	TableParam
	TableInterfaceImpl
	TableMemberRef
	TableConstant
	TableCustomAttribute
	TableFieldMarshal
	TableDeclSecurity
	TableClassLayout
	TableFieldLayout
	TableStandAloneSig
	TableEventMap
	TableEventPtr
	TableEvent
	TablePropertyMap
	TablePropertyPtr
	TableProperty
	TableMethodSemantics
	TableMethodImpl
	TableModuleRef
	TableTypeSpec
	TableImplMap
	TableFieldRVA
	TableENCLog
	TableENCMap
	TableAssembly
	TableAssemblyProcessor
	TableAssemblyOS
	TableAssemblyRef
	TableAssemblyRefProcessor
	TableAssemblyRefOS
	TableFile
	TableExportedType
	TableManifestResource
	TableNestedClass
	TableGenericParam
	TableMethodSpec
	TableGenericParamConstraint
)

var tableIDNames = map[TableID]string{
	TableModule: "Module", TableTypeRef: "TypeRef", TableTypeDef: "TypeDef",
	TableFieldPtr: "FieldPtr", TableMethodPtr: "MethodPtr", TableParamPtr: "ParamPtr",
	TableEventPtr: "EventPtr", TablePropertyPtr: "PropertyPtr",
	TableENCLog: "ENCLog", TableENCMap: "ENCMap",
	TableField: "Field", TableMethodDef: "MethodDef", TableParam: "Param",
	TableInterfaceImpl: "InterfaceImpl", TableMemberRef: "MemberRef",
	TableConstant: "Constant", TableCustomAttribute: "CustomAttribute",
	TableFieldMarshal: "FieldMarshal", TableDeclSecurity: "DeclSecurity",
	TableClassLayout: "ClassLayout", TableFieldLayout: "FieldLayout",
	TableStandAloneSig: "StandAloneSig", TableEventMap: "EventMap",
	TableEvent: "Event", TablePropertyMap: "PropertyMap",
	TableProperty: "Property", TableMethodSemantics: "MethodSemantics",
	TableMethodImpl: "MethodImpl", TableModuleRef: "ModuleRef",
	TableTypeSpec: "TypeSpec", TableImplMap: "ImplMap",
	TableFieldRVA: "FieldRVA", TableAssembly: "Assembly",
	TableAssemblyProcessor: "AssemblyProcessor", TableAssemblyOS: "AssemblyOS",
	TableAssemblyRef: "AssemblyRef", TableAssemblyRefProcessor: "AssemblyRefProcessor",
	TableAssemblyRefOS: "AssemblyRefOS", TableFile: "File",
	TableExportedType: "ExportedType", TableManifestResource: "ManifestResource",
	TableNestedClass: "NestedClass", TableGenericParam: "GenericParam",
	TableMethodSpec: "MethodSpec", TableGenericParamConstraint: "GenericParamConstraint",
}

func (t TableID) String() string {
	if s, ok := tableIDNames[t]; ok {
		return s
	}
	return "Unknown"
}

// TokenOf packs a table id (high byte) and a row index (low 24 bits) into a
// canonical 32-bit token, per §4.8.
func TokenOf(id TableID, row uint32) uint32 {
	return uint32(byte(id))<<24 | (row & 0x00FFFFFF)
}

// TokenComponents splits a token back into its table id and row index.
func TokenComponents(token uint32) (TableID, uint32) {
	return TableID(token >> 24), token & 0x00FFFFFF
}

// codedIndexFamily is a fixed ordered vector of candidate tables for one of
// the 13 coded-index encodings; a reserved slot is represented by -1.
type codedIndexFamily struct {
	tagBits    uint
	candidates []int // TableID, or -1 for a reserved/invalid tag
}

// The family definitions below are grounded on
// original_source/exelib/CLI.cpp's decode_index(), the authoritative
// ECMA-335 reference this decoder was cross-checked against. Three of them
// (HasCustomAttribute, CustomAttributeType, Implementation) diverge from the
// teacher repo's dotnet_helper.go, whose equivalent vectors are
// incomplete — see DESIGN.md.
var (
	famTypeDefOrRef = codedIndexFamily{2, []int{int(TableTypeDef), int(TableTypeRef), int(TableTypeSpec)}}
	famHasConstant  = codedIndexFamily{2, []int{int(TableField), int(TableParam), int(TableProperty)}}
	famHasCustomAttribute = codedIndexFamily{5, []int{
		int(TableMethodDef), int(TableField), int(TableTypeRef), int(TableTypeDef),
		int(TableParam), int(TableInterfaceImpl), int(TableMemberRef), int(TableModule),
		-1, // reserved: historical "Permission" table
		int(TableProperty), int(TableEvent), int(TableStandAloneSig), int(TableModuleRef),
		int(TableTypeSpec), int(TableAssembly), int(TableAssemblyRef), int(TableFile),
		int(TableExportedType), int(TableManifestResource), int(TableGenericParam),
		int(TableGenericParamConstraint), int(TableMethodSpec),
	}}
	famHasFieldMarshall = codedIndexFamily{1, []int{int(TableField), int(TableParam)}}
	famHasDeclSecurity  = codedIndexFamily{2, []int{int(TableTypeDef), int(TableMethodDef), int(TableAssembly)}}
	famMemberRefParent  = codedIndexFamily{3, []int{
		int(TableTypeDef), int(TableTypeRef), int(TableModuleRef), int(TableMethodDef), int(TableTypeSpec),
	}}
	famHasSemantics   = codedIndexFamily{1, []int{int(TableEvent), int(TableProperty)}}
	famMethodDefOrRef = codedIndexFamily{1, []int{int(TableMethodDef), int(TableMemberRef)}}
	famMemberForwarded = codedIndexFamily{1, []int{int(TableField), int(TableMethodDef)}}
	famImplementation  = codedIndexFamily{2, []int{int(TableFile), int(TableAssemblyRef), int(TableExportedType)}}
	famCustomAttributeType = codedIndexFamily{3, []int{-1, -1, int(TableMethodDef), int(TableMemberRef), -1}}
	famResolutionScope      = codedIndexFamily{2, []int{int(TableModule), int(TableModuleRef), int(TableAssemblyRef), int(TableTypeRef)}}
	famTypeOrMethodDef      = codedIndexFamily{1, []int{int(TableTypeDef), int(TableMethodDef)}}
)

// CodedIndexFamily names the 13 families a tables-stream column may encode.
type CodedIndexFamily int

const (
	FamilyTypeDefOrRef CodedIndexFamily = iota
	FamilyHasConstant
	FamilyHasCustomAttribute
	FamilyHasFieldMarshall
	FamilyHasDeclSecurity
	FamilyMemberRefParent
	FamilyHasSemantics
	FamilyMethodDefOrRef
	FamilyMemberForwarded
	FamilyImplementation
	FamilyCustomAttributeType
	FamilyResolutionScope
	FamilyTypeOrMethodDef
)

func familyFor(f CodedIndexFamily) codedIndexFamily {
	switch f {
	case FamilyTypeDefOrRef:
		return famTypeDefOrRef
	case FamilyHasConstant:
		return famHasConstant
	case FamilyHasCustomAttribute:
		return famHasCustomAttribute
	case FamilyHasFieldMarshall:
		return famHasFieldMarshall
	case FamilyHasDeclSecurity:
		return famHasDeclSecurity
	case FamilyMemberRefParent:
		return famMemberRefParent
	case FamilyHasSemantics:
		return famHasSemantics
	case FamilyMethodDefOrRef:
		return famMethodDefOrRef
	case FamilyMemberForwarded:
		return famMemberForwarded
	case FamilyImplementation:
		return famImplementation
	case FamilyCustomAttributeType:
		return famCustomAttributeType
	case FamilyResolutionScope:
		return famResolutionScope
	case FamilyTypeOrMethodDef:
		return famTypeOrMethodDef
	default:
		return codedIndexFamily{}
	}
}

// DecodeIndex resolves a coded-index field's raw integer value into the
// target table and 1-based row it names, per §4.8. row == 0 means "no
// target" and is always valid.
func DecodeIndex(family CodedIndexFamily, raw uint32, offset int64) (TableID, uint32, error) {
	fam := familyFor(family)
	mask := uint32(1)<<fam.tagBits - 1
	tag := raw & mask
	row := raw >> fam.tagBits

	if int(tag) >= len(fam.candidates) || fam.candidates[tag] == -1 {
		return 0, 0, newError(ErrInvalidCodedTag, offset, "")
	}
	return TableID(fam.candidates[tag]), row, nil
}

// codedIndexMaxRowThreshold returns the row-count threshold above which a
// coded index of the given tag width must be widened to 4 bytes (§4.8).
func codedIndexMaxRowThreshold(tagBits uint) uint32 {
	return 1 << (16 - tagBits)
}
