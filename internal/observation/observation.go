package observation

// Responsible-party roles as they appear in EML.
const (
	RoleCreator          = "creator"
	RoleContact          = "contact"
	RoleAssociatedParty  = "associatedParty"
	RoleMetadataProvider = "metadataProvider"
	RolePersonnel        = "personnel"
)

// CorrectionCode records how an observation's identifier was obtained.
type CorrectionCode int

const (
	// CodeNone marks an identifier as recorded in the document, or absent.
	CodeNone CorrectionCode = -1
	// CodeCorrected marks an identifier set by a strict correction.
	CodeCorrected CorrectionCode = 0
	// CodeStipulated marks an identifier filled by a stipulation.
	CodeStipulated CorrectionCode = 1
	// CodePropagated marks an identifier copied from the rest of its cluster.
	CodePropagated CorrectionCode = 99
)

// Observation is one responsible-party entry in one document.
type Observation struct {
	SourceID     int64
	Package      PackageID
	Role         string
	GivenName    string
	Surname      string
	SurnameRaw   string
	Organization string
	Position     string
	Address      string
	City         string
	Country      string
	Emails       []string
	URLs         []string
	UniqueID     string
	Correction   CorrectionCode
	Keywords     []string
}

// Scope returns the package scope.
func (o Observation) Scope() string {
	return o.Package.Scope
}

// Name returns "surname, givenname" as recorded.
func (o Observation) Name() string {
	return o.Surname + ", " + o.GivenName
}

// IsCreator reports whether the entry credits a dataset creator.
func (o Observation) IsCreator() bool {
	return o.Role == RoleCreator
}

// Clone returns a deep copy.
func (o Observation) Clone() Observation {
	o.Emails = append([]string(nil), o.Emails...)
	o.URLs = append([]string(nil), o.URLs...)
	o.Keywords = append([]string(nil), o.Keywords...)
	return o
}
