package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

type stubRef struct {
	codelists map[string]*model.Codelist
}

func (s stubRef) GetDomainSpec(domain string) (*model.DomainSpec, error) { return nil, nil }
func (s stubRef) LookupCodelist(code string) (*model.Codelist, error) {
	if cl, ok := s.codelists[code]; ok {
		return cl, nil
	}
	return nil, assertErr(code)
}
func (s stubRef) IsExtensible(code string) bool {
	cl, ok := s.codelists[code]
	return ok && cl.Extensible
}
func (s stubRef) ValidateTerm(code, value string) bool {
	cl, ok := s.codelists[code]
	if !ok {
		return false
	}
	if cl.Extensible {
		return true
	}
	return cl.HasSubmissionValue(value)
}
func (s stubRef) GetCodelistForVariable(varName string) (*model.Codelist, bool) { return nil, false }

type testErr string

func (e testErr) Error() string { return string(e) }
func assertErr(code string) error { return testErr("unknown codelist: " + code) }

func sexDomainSpec() *model.DomainSpec {
	return &model.DomainSpec{
		Domain: "DM",
		Variables: []model.VariableSpec{
			{Name: "STUDYID", Label: "Study Identifier", Type: model.TypeChar, Core: model.CoreReq},
			{Name: "DOMAIN", Label: "Domain Abbreviation", Type: model.TypeChar, Core: model.CoreReq},
			{Name: "USUBJID", Label: "Unique Subject Identifier", Type: model.TypeChar, Core: model.CoreReq},
			{Name: "SEX", Label: "Sex", Type: model.TypeChar, Core: model.CoreReq, CodelistCode: "C66731"},
			{Name: "RFSTDTC", Label: "Subject Reference Start Date/Time", Type: model.TypeChar, Core: model.CoreExp},
		},
	}
}

func sexCodelist() *model.Codelist {
	return &model.Codelist{
		Code:       "C66731",
		Extensible: false,
		Terms: map[string]model.CodelistTerm{
			"M": {NCIPreferredTerm: "MALE"},
			"F": {NCIPreferredTerm: "FEMALE"},
		},
	}
}

func TestValidateDomainFlagsMissingExpectedAndBadCTValue(t *testing.T) {
	tbl := model.NewTable([]string{"STUDYID", "DOMAIN", "USUBJID", "SEX"})
	tbl.AddColumn("STUDYID", []string{"S1", "S1"})
	tbl.AddColumn("DOMAIN", []string{"DM", "DM"})
	tbl.AddColumn("USUBJID", []string{"S1-001", "S1-002"})
	tbl.AddColumn("SEX", []string{"M", "X"}) // "X" is not in C66731

	ctx := DomainContext{
		Domain:     "DM",
		Table:      tbl,
		DomainSpec: sexDomainSpec(),
		Ref:        stubRef{codelists: map[string]*model.Codelist{"C66731": sexCodelist()}},
	}
	results := ValidateDomain(ctx)

	var ruleIDs []string
	for _, r := range results {
		ruleIDs = append(ruleIDs, r.RuleID)
	}
	assert.Contains(t, ruleIDs, "ASTR-P002")    // RFSTDTC missing (Exp, not Req - fires P002)
	assert.NotContains(t, ruleIDs, "ASTR-P001") // every Req variable is present
	assert.Contains(t, ruleIDs, "ASTR-T001") // SEX="X" invalid
	assert.NotContains(t, ruleIDs, "ASTR-T002") // DOMAIN column is correct
}

func TestAstrP001OnlyFiresForRequiredNotExpected(t *testing.T) {
	tbl := model.NewTable([]string{"STUDYID", "DOMAIN", "USUBJID", "SEX"})
	tbl.AddColumn("STUDYID", []string{"S1"})
	tbl.AddColumn("DOMAIN", []string{"DM"})
	tbl.AddColumn("USUBJID", []string{"S1-001"})
	tbl.AddColumn("SEX", []string{"M"})

	ctx := DomainContext{Domain: "DM", Table: tbl, DomainSpec: sexDomainSpec()}
	results := astrP001RequiredVariablePresent(ctx)
	assert.Empty(t, results) // all Req variables present; RFSTDTC is Exp only

	expResults := astrP002ExpectedVariablePresent(ctx)
	require.Len(t, expResults, 1)
	assert.Equal(t, "RFSTDTC", expResults[0].Variable)
}

func TestAstrL001FlagsOverlongVariableName(t *testing.T) {
	tbl := model.NewTable([]string{"AVERYLONGNAME"})
	tbl.AddColumn("AVERYLONGNAME", []string{"x"})
	results := astrL001NameLength(DomainContext{Domain: "XX", Table: tbl})
	require.Len(t, results, 1)
	assert.Equal(t, "ASTR-L001", results[0].RuleID)
}

func TestValidateDomainRecoversFromPanickingRule(t *testing.T) {
	tbl := model.NewTable([]string{"USUBJID"})
	tbl.AddColumn("USUBJID", []string{"S1-001"})

	panicky := func(ctx DomainContext) []model.RuleResult {
		panic("boom")
	}
	defer func(orig []domainRuleFunc) { domainRules = orig }(domainRules)
	domainRules = []domainRuleFunc{panicky}

	results := ValidateDomain(DomainContext{Domain: "DM", Table: tbl})
	require.Len(t, results, 1)
	assert.Equal(t, "ASTR-RULE-EXCEPTION", results[0].RuleID)
	assert.Equal(t, model.SeverityWarning, results[0].Severity)
}

func TestAstrC001FlagsOrphanUSUBJID(t *testing.T) {
	dm := model.NewTable([]string{"USUBJID"})
	dm.AddColumn("USUBJID", []string{"S1-001"})
	ae := model.NewTable([]string{"USUBJID"})
	ae.AddColumn("USUBJID", []string{"S1-001", "S1-999"})

	results := astrC001NonDMUSUBJIDInDM(CrossDomainContext{
		Tables: map[string]*model.Table{"DM": dm, "AE": ae},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "ASTR-C001", results[0].RuleID)
	assert.True(t, strings.Contains(results[0].Message, "S1-999"))
}

func TestBuildReportSuppressesWhitelistedErrorFromEffectiveCount(t *testing.T) {
	results := []model.RuleResult{
		{RuleID: "ASTR-T001", Severity: model.SeverityError, Domain: "DM", Variable: "SEX"},
		{RuleID: "ASTR-P003", Severity: model.SeverityWarning, Domain: "DM"},
	}
	whitelist := []model.WhitelistEntry{
		{RuleID: "ASTR-T001", Domain: "DM", Variable: "SEX", Reason: "known site coding quirk"},
	}
	report := BuildReport(results, whitelist)
	assert.Equal(t, 0, report.EffectiveErrorCount)
	assert.True(t, report.SubmissionReady)
	assert.True(t, report.Results[0].KnownFalsePositive)
}

func TestBuildReportNotSubmissionReadyWithUnsuppressedError(t *testing.T) {
	results := []model.RuleResult{
		{RuleID: "ASTR-P001", Severity: model.SeverityError, Domain: "DM"},
	}
	report := BuildReport(results, nil)
	assert.Equal(t, 1, report.EffectiveErrorCount)
	assert.False(t, report.SubmissionReady)
}

func TestSubmissionBlockingErrorCombinesUnsuppressedErrorsOnly(t *testing.T) {
	report := BuildReport([]model.RuleResult{
		{RuleID: "ASTR-T001", Severity: model.SeverityError, Domain: "DM", Variable: "SEX", Message: "bad SEX value"},
		{RuleID: "ASTR-P001", Severity: model.SeverityError, Domain: "DM", Variable: "USUBJID", Message: "missing USUBJID"},
		{RuleID: "ASTR-P003", Severity: model.SeverityWarning, Domain: "DM", Message: "zero rows"},
	}, []model.WhitelistEntry{
		{RuleID: "ASTR-T001", Domain: "DM", Variable: "SEX", Reason: "known site coding quirk"},
	})

	err := SubmissionBlockingError(report)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "missing USUBJID")
}

func TestSubmissionBlockingErrorNilWhenSubmissionReady(t *testing.T) {
	report := BuildReport([]model.RuleResult{
		{RuleID: "ASTR-P003", Severity: model.SeverityWarning, Domain: "DM"},
	}, nil)
	assert.NoError(t, SubmissionBlockingError(report))
}

func TestAstrF003FilenameMismatchFlagged(t *testing.T) {
	tbl := model.NewTable(nil)
	results := astrF003Filename(DomainContext{Domain: "DM", Table: tbl, Filename: "/out/DM.xpt"})
	require.Len(t, results, 1)
	assert.Equal(t, "ASTR-F003", results[0].RuleID)

	results = astrF003Filename(DomainContext{Domain: "DM", Table: tbl, Filename: "/out/dm.xpt"})
	assert.Empty(t, results)
}

func TestFdab009FlagsTestCDMappingToTwoDifferentTests(t *testing.T) {
	tbl := model.NewTable([]string{"LBTESTCD", "LBTEST"})
	tbl.AddColumn("LBTESTCD", []string{"GLUC", "GLUC"})
	tbl.AddColumn("LBTEST", []string{"Glucose", "Glucose Fasting"})
	results := fdab009TestCDTestOneToOne(DomainContext{Domain: "LB", Table: tbl})
	require.Len(t, results, 1)
	assert.Equal(t, "FDAB009", results[0].RuleID)
}

func TestFdaTRC1734RequiresTSWithSSTDTC(t *testing.T) {
	results := fdaTRC1734TSHasSSTDTC(CrossDomainContext{Tables: map[string]*model.Table{}})
	require.Len(t, results, 1)
	assert.Equal(t, "FDA-TRC-1734", results[0].RuleID)

	results = fdaTRC1734TSHasSSTDTC(CrossDomainContext{
		Tables:           map[string]*model.Table{"TS": model.NewTable(nil)},
		TSHasSSTDTCParam: true,
	})
	assert.Empty(t, results)
}
