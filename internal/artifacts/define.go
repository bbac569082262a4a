// Package artifacts is Submission Artifacts (spec.md C10): the define.xml
// 2.0 generator, the cSDRG Markdown renderer, package-level size/naming
// checks, and a per-domain mapping workbook for sponsor review.
//
// Grounded on the teacher's internal/converter/spec_renderer.go
// (string-builder composition, one render* helper per document section)
// for the cSDRG, and internal/quota/policy.go's PolicyEngine for the
// package-level size checks; the define.xml generator is new (the teacher
// has no ODM/XML analogue) but follows the same "walk the domain specs,
// build one XML element tree" shape idiomatic encoding/xml code takes.
package artifacts

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// Define.xml 2.0's fixed namespace map (spec.md §4.10).
const (
	odmNamespace = "http://www.cdisc.org/ns/odm/v1.3"
	defNamespace = "http://www.cdisc.org/ns/def/v2.0"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// ODM is the document root.
type ODM struct {
	XMLName      xml.Name `xml:"ODM"`
	Xmlns        string   `xml:"xmlns,attr"`
	XmlnsDef     string   `xml:"xmlns:def,attr"`
	XmlnsXlink   string   `xml:"xmlns:xlink,attr"`
	FileType     string   `xml:"FileType,attr"`
	ODMVersion   string   `xml:"ODMVersion,attr"`
	Study        Study    `xml:"Study"`
}

type Study struct {
	OID          string       `xml:"OID,attr"`
	GlobalVariables GlobalVariables `xml:"GlobalVariables"`
	MetaDataVersion MetaDataVersion `xml:"MetaDataVersion"`
}

type GlobalVariables struct {
	StudyName        string `xml:"StudyName"`
	StudyDescription string `xml:"StudyDescription"`
	ProtocolName     string `xml:"ProtocolName"`
}

type MetaDataVersion struct {
	OID             string            `xml:"OID,attr"`
	Name            string            `xml:"Name,attr"`
	ItemGroupDefs   []ItemGroupDef    `xml:"ItemGroupDef"`
	ItemDefs        []ItemDef         `xml:"ItemDef"`
	CodeLists       []CodeList        `xml:"CodeList"`
	MethodDefs      []MethodDef       `xml:"def:MethodDef"`
	CommentDefs     []CommentDef      `xml:"def:CommentDef"`
	ValueListDefs   []ValueListDef    `xml:"def:ValueListDef"`
}

type ItemGroupDef struct {
	OID             string    `xml:"OID,attr"`
	Name            string    `xml:"Name,attr"`
	Repeating       string    `xml:"Repeating,attr"`
	SASDatasetName  string    `xml:"def:SASDatasetName,attr"`
	Purpose         string    `xml:"Purpose,attr"`
	Structure       string    `xml:"def:Structure,attr"`
	Class           string    `xml:"def:Class,attr"`
	ArchiveLocationID string  `xml:"def:ArchiveLocationID,attr"`
	ItemRefs        []ItemRef `xml:"ItemRef"`
}

type ItemRef struct {
	ItemOID     string `xml:"ItemOID,attr"`
	OrderNumber int    `xml:"OrderNumber,attr"`
	Mandatory   string `xml:"Mandatory,attr"`
}

type ItemDef struct {
	OID          string        `xml:"OID,attr"`
	Name         string        `xml:"Name,attr"`
	DataType     string        `xml:"DataType,attr"`
	Length       int           `xml:"Length,attr,omitempty"`
	Origin       OriginElement `xml:"def:Origin"`
	Description  *Description  `xml:"Description,omitempty"`
	CodeListRef  *CodeListRef  `xml:"CodeListRef,omitempty"`
	MethodOID    string        `xml:"MethodOID,attr,omitempty"`
}

type OriginElement struct {
	Type string `xml:"Type,attr"`
}

type Description struct {
	TranslatedText string `xml:"TranslatedText"`
}

type CodeListRef struct {
	CodeListOID string `xml:"CodeListOID,attr"`
}

type CodeList struct {
	OID         string             `xml:"OID,attr"`
	Name        string             `xml:"Name,attr"`
	DataType    string             `xml:"DataType,attr"`
	CodeListItems []CodeListItem   `xml:"CodeListItem"`
}

type CodeListItem struct {
	CodedValue string       `xml:"CodedValue,attr"`
	Decode     Description  `xml:"Decode"`
}

type MethodDef struct {
	OID              string `xml:"OID,attr"`
	Name             string `xml:"Name,attr"`
	Type             string `xml:"Type,attr"`
	Description      string `xml:"Description>TranslatedText"`
	FormalExpression string `xml:"FormalExpression"`
}

type CommentDef struct {
	OID            string `xml:"OID,attr"`
	TranslatedText string `xml:"Description>TranslatedText"`
}

type ValueListDef struct {
	OID             string           `xml:"OID,attr"`
	ItemRefs        []ItemRef        `xml:"ItemRef"`
	WhereClauseDefs []WhereClauseDef `xml:"def:WhereClauseDef"`
}

type WhereClauseDef struct {
	OID        string `xml:"OID,attr"`
	ItemOID    string `xml:"RangeCheck>ItemOID,attr"`
	Comparator string `xml:"RangeCheck>Comparator,attr"`
	CheckValue string `xml:"RangeCheck>CheckValue"`
}

// BuildInput is everything GenerateDefineXML needs to build one
// submission's define.xml.
type BuildInput struct {
	StudyID      string
	StudyName    string
	ProtocolName string
	DomainSpecs  map[string]*model.DomainSpec       // domain -> reference metadata
	MappingSpecs map[string]*model.DomainMappingSpec // domain -> approved mappings
	Codelists    map[string]*model.Codelist         // codelist_code -> codelist
	NonStandardVariables map[string][]string        // domain -> variable names flagged non-standard
	TransposedDomains    map[string]bool             // domain -> TRANSPOSE pattern executed
}

// GenerateDefineXML builds the ODM document for in.StudyID, covering every
// domain in in.MappingSpecs, per spec.md §4.10. Domains are processed in
// sorted order for deterministic output.
func GenerateDefineXML(in BuildInput) (*ODM, error) {
	mdv := MetaDataVersion{
		OID:  "MDV." + in.StudyID,
		Name: in.StudyID + " Define-XML",
	}

	codeListOIDs := make(map[string]bool)
	methodCounter := 0
	commentCounter := 0

	domains := sortedKeys(in.MappingSpecs)
	for _, domain := range domains {
		ms := in.MappingSpecs[domain]
		ds := in.DomainSpecs[domain]
		if ds == nil {
			return nil, fmt.Errorf("artifacts: no reference DomainSpec for domain %s", domain)
		}

		igd := ItemGroupDef{
			OID:               "IG." + domain,
			Name:              domain,
			Repeating:         "Yes",
			SASDatasetName:    domain,
			Purpose:           "Tabulation",
			Structure:         ds.Structure,
			Class:             string(ds.Class),
			ArchiveLocationID: domain + ".xpt",
		}

		for _, vm := range ms.Ordered() {
			itemOID := fmt.Sprintf("IT.%s.%s", domain, vm.SDTMVariable)
			mandatory := "No"
			if vm.Core == model.CoreReq {
				mandatory = "Yes"
			}
			igd.ItemRefs = append(igd.ItemRefs, ItemRef{
				ItemOID:     itemOID,
				OrderNumber: vm.Order,
				Mandatory:   mandatory,
			})

			dataType := "text"
			if vm.Type == model.TypeNum {
				dataType = "float"
			}
			item := ItemDef{
				OID:      itemOID,
				Name:     vm.SDTMVariable,
				DataType: dataType,
				Length:   vm.Length,
				Origin:   OriginElement{Type: string(vm.Origin)},
			}
			if vm.Label != "" {
				item.Description = &Description{TranslatedText: vm.Label}
			}
			if vm.CodelistCode != "" {
				clOID := "CL." + vm.CodelistCode
				item.CodeListRef = &CodeListRef{CodeListOID: clOID}
				codeListOIDs[vm.CodelistCode] = true
			}
			if vm.ComputationalMethod != "" {
				methodCounter++
				methodOID := fmt.Sprintf("MT.%s.%s", domain, vm.SDTMVariable)
				item.MethodOID = methodOID
				mdv.MethodDefs = append(mdv.MethodDefs, MethodDef{
					OID:              methodOID,
					Name:             fmt.Sprintf("Derivation for %s.%s", domain, vm.SDTMVariable),
					Type:             "Computation",
					Description:      vm.ComputationalMethod,
					FormalExpression: vm.DerivationRule,
				})
			}
			mdv.ItemDefs = append(mdv.ItemDefs, item)
		}

		for _, varName := range in.NonStandardVariables[domain] {
			commentCounter++
			mdv.CommentDefs = append(mdv.CommentDefs, CommentDef{
				OID:            fmt.Sprintf("COM.%s.%s", domain, varName),
				TranslatedText: fmt.Sprintf("%s.%s is a sponsor-defined, non-standard variable.", domain, varName),
			})
		}
		for _, varName := range ms.SuppqualCandidates {
			commentCounter++
			mdv.CommentDefs = append(mdv.CommentDefs, CommentDef{
				OID:            fmt.Sprintf("COM.%s.%s.SUPPQUAL", domain, varName),
				TranslatedText: fmt.Sprintf("%s.%s is carried as a SUPPQUAL, not a standard domain variable.", domain, varName),
			})
		}

		if in.TransposedDomains[domain] {
			vld, err := buildValueListDef(domain, ms)
			if err != nil {
				return nil, err
			}
			if vld != nil {
				mdv.ValueListDefs = append(mdv.ValueListDefs, *vld)
			}
		}

		mdv.ItemGroupDefs = append(mdv.ItemGroupDefs, igd)
	}

	for _, code := range sortedKeysOfSet(codeListOIDs) {
		cl, ok := in.Codelists[code]
		if !ok {
			return nil, fmt.Errorf("artifacts: codelist %s referenced but not present in the CT bundle", code)
		}
		mdv.CodeLists = append(mdv.CodeLists, buildCodeList(code, cl))
	}

	_ = methodCounter
	_ = commentCounter

	return &ODM{
		Xmlns:      odmNamespace,
		XmlnsDef:   defNamespace,
		XmlnsXlink: xlinkNamespace,
		FileType:   "Snapshot",
		ODMVersion: "1.3.2",
		Study: Study{
			OID: "ST." + in.StudyID,
			GlobalVariables: GlobalVariables{
				StudyName:        in.StudyName,
				StudyDescription: in.StudyName,
				ProtocolName:     in.ProtocolName,
			},
			MetaDataVersion: mdv,
		},
	}, nil
}

// buildValueListDef builds one ValueListDef for a Findings domain whose
// mappings include --TESTCD, with one ItemRef per mapped variable in
// mapping order; it returns nil when --TESTCD is not mapped. It emits no
// WhereClauseDef, so the value list is not split per --TESTCD value.
func buildValueListDef(domain string, ms *model.DomainMappingSpec) (*ValueListDef, error) {
	testcdVar := domain + "TESTCD"
	if _, ok := ms.VariableMappings[testcdVar]; !ok {
		return nil, nil
	}

	vld := &ValueListDef{OID: "VL." + domain + ".STRESN"}
	for _, vm := range ms.Ordered() {
		vld.ItemRefs = append(vld.ItemRefs, ItemRef{ItemOID: fmt.Sprintf("IT.%s.%s", domain, vm.SDTMVariable), OrderNumber: vm.Order})
	}
	return vld, nil
}

func buildCodeList(code string, cl *model.Codelist) CodeList {
	out := CodeList{OID: "CL." + code, Name: cl.Name, DataType: "text"}
	for _, value := range sortedKeysOfTerms(cl.Terms) {
		term := cl.Terms[value]
		out.CodeListItems = append(out.CodeListItems, CodeListItem{
			CodedValue: value,
			Decode:     Description{TranslatedText: term.NCIPreferredTerm},
		})
	}
	return out
}

func sortedKeys(m map[string]*model.DomainMappingSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysOfSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysOfTerms(m map[string]model.CodelistTerm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Marshal renders odm as UTF-8, XML-declared, pretty-printed XML, per
// spec.md §7's "define.xml v2.0, UTF-8, XML-declared, pretty-printed."
func Marshal(odm *ODM) ([]byte, error) {
	body, err := xml.MarshalIndent(odm, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("artifacts: marshal define.xml: %w", err)
	}
	header := []byte(xml.Header)
	return append(header, body...), nil
}
