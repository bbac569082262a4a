package artifacts

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func sampleInput() BuildInput {
	ds := &model.DomainSpec{
		Domain: "DM", Class: model.ClassSpecialPurpose, Structure: "One record per subject",
		Variables: []model.VariableSpec{
			{Name: "STUDYID", Core: model.CoreReq},
			{Name: "USUBJID", Core: model.CoreReq},
			{Name: "SEX", CodelistCode: "C66731"},
		},
	}
	ms := model.NewDomainMappingSpec("DM", model.ClassSpecialPurpose, "One record per subject")
	ms.Add(&model.VariableMapping{SDTMVariable: "STUDYID", Order: 1, Core: model.CoreReq, Type: model.TypeChar, Origin: model.OriginAssigned})
	ms.Add(&model.VariableMapping{SDTMVariable: "USUBJID", Order: 2, Core: model.CoreReq, Type: model.TypeChar, Origin: model.OriginDerived, ComputationalMethod: "Concatenate STUDYID and SUBJID", DerivationRule: "GENERATE_USUBJID(SUBJID)"})
	ms.Add(&model.VariableMapping{SDTMVariable: "SEX", Order: 3, Type: model.TypeChar, Origin: model.OriginCRF, CodelistCode: "C66731"})

	return BuildInput{
		StudyID:      "STUDY1",
		StudyName:    "Sample Study",
		ProtocolName: "PROTO-1",
		DomainSpecs:  map[string]*model.DomainSpec{"DM": ds},
		MappingSpecs: map[string]*model.DomainMappingSpec{"DM": ms},
		Codelists: map[string]*model.Codelist{
			"C66731": {Code: "C66731", Name: "Sex", Terms: map[string]model.CodelistTerm{
				"M": {NCIPreferredTerm: "Male"},
				"F": {NCIPreferredTerm: "Female"},
			}},
		},
	}
}

func TestGenerateDefineXML_OIDsResolve(t *testing.T) {
	odm, err := GenerateDefineXML(sampleInput())
	require.NoError(t, err)
	require.Len(t, odm.Study.MetaDataVersion.ItemGroupDefs, 1)

	igd := odm.Study.MetaDataVersion.ItemGroupDefs[0]
	itemDefOIDs := make(map[string]bool)
	for _, item := range odm.Study.MetaDataVersion.ItemDefs {
		itemDefOIDs[item.OID] = true
	}
	for _, ref := range igd.ItemRefs {
		assert.True(t, itemDefOIDs[ref.ItemOID], "ItemRef %s must resolve to an ItemDef", ref.ItemOID)
	}

	methodOIDs := make(map[string]bool)
	for _, m := range odm.Study.MetaDataVersion.MethodDefs {
		methodOIDs[m.OID] = true
	}
	for _, item := range odm.Study.MetaDataVersion.ItemDefs {
		if item.MethodOID != "" {
			assert.True(t, methodOIDs[item.MethodOID], "ItemDef %s MethodOID must resolve to a MethodDef", item.OID)
		}
	}

	require.Len(t, odm.Study.MetaDataVersion.CodeLists, 1)
	assert.Equal(t, "CL.C66731", odm.Study.MetaDataVersion.CodeLists[0].OID)
}

func TestMarshal_IsValidXML(t *testing.T) {
	odm, err := GenerateDefineXML(sampleInput())
	require.NoError(t, err)

	raw, err := Marshal(odm)
	require.NoError(t, err)

	var roundTrip ODM
	require.NoError(t, xml.Unmarshal(raw, &roundTrip))
	assert.Equal(t, "ST.STUDY1", roundTrip.Study.OID)
}

func TestGenerateDefineXML_MissingCodelistErrors(t *testing.T) {
	in := sampleInput()
	delete(in.Codelists, "C66731")
	_, err := GenerateDefineXML(in)
	assert.Error(t, err)
}
