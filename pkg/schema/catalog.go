package schema

// catalog declares every domain available to report templates, in the order
// the template editor lists them.
func catalog() []*Domain {
	return []*Domain{
		auditDomain(),
		scopeDomain(),
		clientDomain(),
		companyDomain(),
		creatorDomain(),
		userListDomain("collaborators", "Collaborators", "group", "Pentesters who worked on the audit"),
		userListDomain("reviewers", "Reviewers", "rate_review", "Reviewers assigned to approve the report"),
		findingsDomain(),
		sectionsDomain(),
		statsDomain(),
		auditStatusDomain(),
		procedureDomain(),
		verificationsDomain(),
		documentDomain(),
	}
}

var languageOptions = []Option{Raw("en"), Raw("fr"), Raw("de"), Raw("es"), Raw("it")}

func auditDomain() *Domain {
	return NewDomain("audit", "Audit", "assignment", "General information about the audit",
		NewFields(
			Def("name", Text("Audit name", "ACME Web Application Pentest")),
			Def("auditType", Text("Audit type", "Web Application")),
			Def("date", Date("Report date", "2024-03-18")),
			Def("date_start", Date("Start date", "2024-03-04")),
			Def("date_end", Date("End date", "2024-03-15")),
			Def("language", Enum("Language", "en", languageOptions...)),
			Def("summary", RichText("Executive summary", "<p>The assessment identified several weaknesses.</p>")),
			Def("template", Text("Report template", "Default Pentest Report")),
			Def("type", Enum("Audit kind", "default",
				Pair("default", "Default"),
				Pair("multi", "Multi-audit parent"),
				Pair("retest", "Retest"),
			)),
			Def("budget", Number("Budget", 12500)),
			Def("customFields", Array("Custom fields", NewFields(
				Def("label", Text("Label", "Contract number")),
				Def("text", Text("Value", "CT-2024-017")),
			))),
		),
	)
}

func scopeDomain() *Domain {
	services := NewFields(
		Def("port", Number("Port", 443)),
		Def("protocol", Enum("Protocol", "tcp", Raw("tcp"), Raw("udp"))),
		Def("name", Text("Service name", "https")),
		Def("product", Text("Product", "nginx")),
		Def("version", Text("Version", "1.24.0")),
	)
	hosts := NewFields(
		Def("hostname", Text("Hostname", "app.acme.example")),
		Def("ip", Text("IP address", "203.0.113.10")),
		Def("os", Text("Operating system", "Linux")),
		Def("services", Array("Services", services)),
	)
	return NewDomain("scope", "Scope", "gps_fixed", "Targets included in the audit perimeter",
		NewFields(
			Def("name", Text("Scope item", "https://app.acme.example")),
			Def("hosts", Array("Hosts", hosts)),
		),
		AsArray(),
	)
}

func companyFields() *Fields {
	return NewFields(
		Def("name", Text("Company name", "ACME Corporation")),
		Def("shortName", Text("Short name", "ACME")),
		Def("logo", Image("Logo", "data:image/png;base64,iVBORw0KGgo=")),
	)
}

func clientDomain() *Domain {
	return NewDomain("client", "Client", "person", "Client contact for the audit",
		NewFields(
			Def("email", Email("Email", "jane.doe@acme.example")),
			Def("firstname", Text("First name", "Jane")),
			Def("lastname", Text("Last name", "Doe")),
			Def("title", Text("Job title", "CISO")),
			Def("phone", Text("Phone", "+1 555 0100")),
			Def("cell", Text("Mobile", "+1 555 0101")),
			Def("company", Object("Company", companyFields())),
		),
	)
}

func companyDomain() *Domain {
	return NewDomain("company", "Company", "business", "Audited company", companyFields())
}

var roleOptions = []Option{
	Pair("admin", "Administrator"),
	Pair("user", "Pentester"),
	Pair("report", "Report reviewer"),
}

func userFields() *Fields {
	return NewFields(
		Def("username", Text("Username", "jsmith")),
		Def("firstname", Text("First name", "John")),
		Def("lastname", Text("Last name", "Smith")),
		Def("email", Email("Email", "john.smith@pentest.example")),
		Def("role", Enum("Role", "user", roleOptions...)),
		Def("jobTitle", Text("Job title", "Senior Security Consultant")),
		Def("phone", Text("Phone", "+1 555 0199")),
	)
}

func creatorDomain() *Domain {
	return NewDomain("creator", "Creator", "person_outline", "User who created the audit", userFields())
}

func userListDomain(key, label, icon, description string) *Domain {
	return NewDomain(key, label, icon, description, userFields(), AsArray())
}

var statusOptions = []Option{Pair(0, "Done"), Pair(1, "Redacting")}

func findingsDomain() *Domain {
	return NewDomain("findings", "Findings", "bug_report", "Vulnerabilities identified during the audit",
		NewFields(
			Def("identifier", Text("Identifier", "IDX-001")),
			Def("title", Text("Title", "SQL Injection in login form")),
			Def("vulnType", Text("Vulnerability type", "Injection")),
			Def("category", Text("Category", "Web")),
			Def("description", RichText("Description", "<p>The login form concatenates user input into a SQL query.</p>")),
			Def("observation", RichText("Observation", "<p>Sending a single quote triggers a database error.</p>")),
			Def("remediation", RichText("Remediation", "<p>Use parameterised queries.</p>")),
			Def("remediationComplexity", Enum("Remediation complexity", 1,
				Pair(1, "Easy"),
				Pair(2, "Medium"),
				Pair(3, "Complex"),
			)),
			Def("priority", Enum("Priority", 3,
				Pair(1, "Low"),
				Pair(2, "Medium"),
				Pair(3, "High"),
				Pair(4, "Urgent"),
			)),
			Def("references", ArrayText("References", "https://owasp.org/www-community/attacks/SQL_Injection")),
			Def("cwes", ArrayText("CWEs", "CWE-89")),
			Def("cvssv3", Text("CVSS v3 vector", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")),
			Def("cvssScore", Computed("CVSS score", 9.8, "cvssv3")),
			Def("severity", Computed("Severity", "Critical", "cvssv3")),
			Def("poc", RichText("Proof of concept", "<pre>username=admin'--</pre>")),
			Def("scope", Text("Affected assets", "https://app.acme.example/login")),
			Def("status", Enum("Status", 0, statusOptions...)),
			Def("retestStatus", Enum("Retest status", "unknown", Raw("ok"), Raw("ko"), Raw("partial"), Raw("unknown"))),
			Def("retestDescription", RichText("Retest description", "<p>Not retested yet.</p>")),
			Def("customFields", Array("Custom fields", NewFields(
				Def("label", Text("Label", "Business impact")),
				Def("text", Text("Value", "Full database compromise")),
			))),
		),
		AsArray(),
	)
}

func sectionsDomain() *Domain {
	return NewDomain("sections", "Sections", "article", "Free-form report sections",
		NewFields(
			Def("field", Text("Section key", "methodology")),
			Def("name", Text("Section name", "Methodology")),
			Def("text", RichText("Content", "<p>Testing followed the OWASP WSTG.</p>")),
		),
		AsArray(),
	)
}

func statsDomain() *Domain {
	return NewDomain("stats", "Statistics", "bar_chart", "Finding counts derived from the findings list",
		NewFields(
			Def("total", Computed("Total findings", 5, "")),
			Def("critical", Computed("Critical findings", 1, "")),
			Def("high", Computed("High findings", 1, "")),
			Def("medium", Computed("Medium findings", 2, "")),
			Def("low", Computed("Low findings", 1, "")),
			Def("none", Computed("Informational findings", 0, "")),
			Def("averageScore", Computed("Average CVSS score", 6.7, "")),
			Def("remediation", Object("By remediation complexity", NewFields(
				Def("easy", Computed("Easy fixes", 3, "")),
				Def("medium", Computed("Medium fixes", 1, "")),
				Def("complex", Computed("Complex fixes", 1, "")),
			))),
		),
		AsComputed(),
	)
}

var auditStateOptions = []Option{
	Pair("EDIT", "Editing"),
	Pair("REVIEW", "In review"),
	Pair("APPROVED", "Approved"),
}

func auditStatusDomain() *Domain {
	return NewDomain("auditStatus", "Audit status", "verified", "Review and approval state of the report",
		NewFields(
			Def("state", Enum("State", "REVIEW", auditStateOptions...)),
			Def("approvals", Array("Approvals", NewFields(
				Def("username", Text("Username", "mreviewer")),
				Def("firstname", Text("First name", "Maria")),
				Def("lastname", Text("Last name", "Reviewer")),
			))),
			Def("approvalCount", Computed("Approvals received", 1, "approvals")),
			Def("requiredApprovals", Number("Approvals required", 2)),
			Def("isApproved", Computed("Approved", false, "")),
		),
		AsComputed(),
	)
}

func procedureDomain() *Domain {
	return NewDomain("procedure", "Procedure", "gavel", "Administrative procedure tracking for the audit",
		NewFields(
			Def("origin", Text("Origin", "Annual security plan")),
			Def("trigger", Text("Trigger", "New release")),
			Def("description", RichText("Description", "<p>Pre-production assessment before go-live.</p>")),
			Def("launchingDate", Date("Launching date", "2024-02-20")),
			Def("sendingDate", Date("Report sending date", "2024-03-20")),
			Def("receivedDate", Date("Acknowledgement date", "2024-03-22")),
			Def("archiveDate", Date("Archive date", "2025-03-20")),
		),
	)
}

func verificationsDomain() *Domain {
	return NewDomain("verifications", "Verifications", "fact_check", "Checklist items verified during the audit",
		NewFields(
			Def("title", Text("Check", "TLS configuration")),
			Def("description", RichText("Description", "<p>Only TLS 1.2+ with strong ciphers.</p>")),
			Def("result", Enum("Result", "pass", Raw("pass"), Raw("fail"), Raw("n/a"))),
			Def("date", Date("Verification date", "2024-03-12")),
			Def("verifiedBy", Object("Verified by", NewFields(
				Def("username", Text("Username", "jsmith")),
				Def("firstname", Text("First name", "John")),
				Def("lastname", Text("Last name", "Smith")),
			))),
			Def("evidence", Image("Evidence", "data:image/png;base64,iVBORw0KGgo=")),
		),
		AsArray(),
	)
}

func documentDomain() *Domain {
	return NewDomain("document", "Document", "description", "Metadata of the generated report document",
		NewFields(
			Def("title", Text("Document title", "Penetration Test Report")),
			Def("version", Text("Version", "1.0")),
			Def("classification", Enum("Classification", "confidential",
				Pair("public", "Public"),
				Pair("internal", "Internal"),
				Pair("confidential", "Confidential"),
				Pair("restricted", "Restricted"),
			)),
			Def("generatedAt", Computed("Generation date", "2024-03-18T09:30:00Z", "")),
			Def("author", Text("Author", "John Smith")),
			Def("language", Enum("Language", "en", languageOptions...)),
			Def("revisions", Array("Revision history", NewFields(
				Def("version", Text("Version", "0.9")),
				Def("date", Date("Date", "2024-03-16")),
				Def("author", Text("Author", "John Smith")),
				Def("changes", Text("Changes", "Draft for review")),
			))),
		),
	)
}
