package claim

// DocumentType classifies one logical document found in the submitted files.
type DocumentType string

const (
	TypeBill             DocumentType = "bill"
	TypeDischargeSummary DocumentType = "discharge_summary"
	TypeIDCard           DocumentType = "id_card"
	TypeCorrespondence   DocumentType = "correspondence"
	TypePrescription     DocumentType = "prescription"
	TypeLabReport        DocumentType = "lab_report"
	TypeOther            DocumentType = "other"
)

// DocumentTypes lists every valid classification category.
var DocumentTypes = []DocumentType{
	TypeBill,
	TypeDischargeSummary,
	TypeIDCard,
	TypeCorrespondence,
	TypePrescription,
	TypeLabReport,
	TypeOther,
}

func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ClassifiedDocument is one logical document separated out of the raw input
// files, tagged with a type and a classification confidence in [0,1].
type ClassifiedDocument struct {
	Type       DocumentType `json:"type"`
	Content    string       `json:"content"`
	Filename   string       `json:"filename,omitempty"`
	Confidence float64      `json:"confidence"`
}

type ClassificationSummary struct {
	TotalDocuments     int      `json:"total_documents"`
	DocumentTypesFound []string `json:"document_types_found"`
}

// Classification is the output of the document classification stage.
type Classification struct {
	Documents []ClassifiedDocument  `json:"documents"`
	Summary   ClassificationSummary `json:"summary"`
}

// OfType returns the classified documents matching the given type.
func (c *Classification) OfType(t DocumentType) []ClassifiedDocument {
	var out []ClassifiedDocument
	for _, d := range c.Documents {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// BillLineItem is one itemized charge on a medical bill.
type BillLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity,omitempty"`
	Amount      float64 `json:"amount"`
}

// BillData holds the fields extracted from one medical bill document.
type BillData struct {
	DocumentType string         `json:"document_type"`
	HospitalName string         `json:"hospital_name,omitempty"`
	PatientName  string         `json:"patient_name,omitempty"`
	BillNumber   string         `json:"bill_number,omitempty"`
	BillDate     string         `json:"bill_date,omitempty"`
	LineItems    []BillLineItem `json:"line_items,omitempty"`
	TotalAmount  float64        `json:"total_amount"`
	TaxAmount    float64        `json:"tax_amount,omitempty"`
	Discount     float64        `json:"discount,omitempty"`
	NetPayable   float64        `json:"net_payable,omitempty"`
	Content      string         `json:"content,omitempty"`
}

// BillResult is the output of the bill extraction stage. An empty result
// (TotalBillsProcessed == 0) means no bill documents were present, which is
// distinct from the stage having failed.
type BillResult struct {
	ProcessedBills      []BillData `json:"processed_bills"`
	TotalBillsProcessed int        `json:"total_bills_processed"`
}

// DischargeData holds the fields extracted from one discharge summary.
type DischargeData struct {
	DocumentType          string   `json:"document_type"`
	PatientName           string   `json:"patient_name,omitempty"`
	AdmissionDate         string   `json:"admission_date,omitempty"`
	DischargeDate         string   `json:"discharge_date,omitempty"`
	PrimaryDiagnosis      string   `json:"primary_diagnosis,omitempty"`
	SecondaryDiagnosis    []string `json:"secondary_diagnosis,omitempty"`
	ProceduresPerformed   []string `json:"procedures_performed,omitempty"`
	DoctorName            string   `json:"doctor_name,omitempty"`
	HospitalName          string   `json:"hospital_name,omitempty"`
	Department            string   `json:"department,omitempty"`
	LengthOfStay          int      `json:"length_of_stay,omitempty"`
	DischargeInstructions string   `json:"discharge_instructions,omitempty"`
	MedicationsPrescribed []string `json:"medications_prescribed,omitempty"`
	FollowUpInstructions  string   `json:"follow_up_instructions,omitempty"`
	PatientCondition      string   `json:"patient_condition,omitempty"`
	Complications         []string `json:"complications,omitempty"`
	Content               string   `json:"content,omitempty"`
}

// DischargeResult is the output of the discharge extraction stage.
type DischargeResult struct {
	ProcessedDischargeSummaries []DischargeData `json:"processed_discharge_summaries"`
	TotalSummariesProcessed     int             `json:"total_summaries_processed"`
}

// ClaimData holds policy and member information pulled from ID cards and
// claim correspondence.
type ClaimData struct {
	DocumentType     string `json:"document_type"`
	PatientName      string `json:"patient_name,omitempty"`
	PolicyNumber     string `json:"policy_number,omitempty"`
	MemberID         string `json:"member_id,omitempty"`
	InsuranceCompany string `json:"insurance_company,omitempty"`
	PolicyType       string `json:"policy_type,omitempty"`
	ValidFrom        string `json:"valid_from,omitempty"`
	ValidTo          string `json:"valid_to,omitempty"`
	ClaimNumber      string `json:"claim_number,omitempty"`
	Content          string `json:"content,omitempty"`
}

// ClaimDataResult is the output of the claim-data extraction stage.
type ClaimDataResult struct {
	ProcessedClaimDocuments []ClaimData `json:"processed_claim_documents"`
	TotalDocumentsProcessed int         `json:"total_documents_processed"`
}

// ValidationResult is the output of the cross-validation stage.
type ValidationResult struct {
	MissingDocuments      []string `json:"missing_documents"`
	Discrepancies         []string `json:"discrepancies"`
	ValidationScore       float64  `json:"validation_score"`
	DataQualityIssues     []string `json:"data_quality_issues"`
	Recommendations       []string `json:"recommendations"`
	AgentComplianceIssues []string `json:"agent_compliance_issues"`
}

// DecisionStatus is the final disposition of a claim.
type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
	DecisionPending  DecisionStatus = "pending"
)

func (s DecisionStatus) Valid() bool {
	switch s {
	case DecisionApproved, DecisionRejected, DecisionPending:
		return true
	}
	return false
}

// Decision is the output of the terminal decision stage. It is created
// exactly once per run and never mutated afterwards.
type Decision struct {
	Status             DecisionStatus `json:"status"`
	Reason             string         `json:"reason"`
	ConfidenceScore    float64        `json:"confidence_score"`
	RecommendedActions []string       `json:"recommended_actions"`
	ApprovalAmount     *float64       `json:"approval_amount,omitempty"`
	Conditions         []string       `json:"conditions,omitempty"`
}
