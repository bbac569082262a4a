package model

// SourceDType is the raw-variable data type as extracted from the source file.
type SourceDType string

const (
	DTypeNumeric   SourceDType = "numeric"
	DTypeCharacter SourceDType = "character"
)

// VariableMetadata describes one raw-variable's source attributes, as handed
// to the Profiler alongside the raw table.
type VariableMetadata struct {
	Name         string      `json:"name"`
	Label        string      `json:"label"`
	SourceFormat string      `json:"source_format,omitempty"` // DATE, DATETIME, TIME, DDMMYY, ...
	DType        SourceDType `json:"dtype"`
	StorageWidth int         `json:"storage_width"`
}

// ValueCount is one entry of a top-value distribution.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// VariableProfile is the per-variable statistics the Profiler computes.
type VariableProfile struct {
	Name               string       `json:"name"`
	NMissing           int          `json:"n_missing"`
	NUnique            int          `json:"n_unique"`
	SampleValues       []string     `json:"sample_values"`       // first 10 unique values
	TopValues          []ValueCount `json:"top_values,omitempty"` // top-5, only when n_unique <= 100
	DetectedDateFormat string       `json:"detected_date_format,omitempty"`
	IsDate             bool         `json:"is_date"`
	IsEDCColumn        bool         `json:"is_edc_column"`
}

// DatasetProfile is the full per-dataset output of the Profiler.
type DatasetProfile struct {
	Filename     string            `json:"filename"`
	RowCount     int               `json:"row_count"`
	ColCount     int               `json:"col_count"`
	Variables    []VariableProfile `json:"variables"`
	EDCColumns   []string          `json:"edc_columns"`
	DateVariables []string         `json:"date_variables"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// VariableProfileByName looks up a variable's computed profile.
func (p *DatasetProfile) VariableProfileByName(name string) (VariableProfile, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableProfile{}, false
}

// ECRFField is one field of an annotated eCRF form.
type ECRFField struct {
	FieldNumber int               `json:"field_number"`
	FieldName   string            `json:"field_name"`
	DataType    string            `json:"data_type"`
	SASLabel    string            `json:"sas_label"`
	Units       string            `json:"units,omitempty"`
	CodedValues map[string]string `json:"coded_values,omitempty"` // code -> decode
	FieldOID    string            `json:"field_oid,omitempty"`
}

// ECRFForm is one page-range of the eCRF document.
type ECRFForm struct {
	FormName    string      `json:"form_name"`
	PageNumbers []int       `json:"page_numbers"`
	Fields      []ECRFField `json:"fields"`
}
