package policy

// BuiltinPolicies returns all built-in policies.
func BuiltinPolicies() []Policy {
	return []Policy{
		tenantPolicy(),
		updateNoticePolicy(),
	}
}

// tenantPolicy denies creating a tenant-scoped entity whose tenant is
// neither part of the plan nor known to exist remotely.
func tenantPolicy() Policy {
	return Policy{
		Name:        "confsync.builtin.tenant",
		Description: "Tenant-scoped entities may only be created in a planned or existing tenant",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"tenancy"},
		Rego: `package confsync.builtin.tenant

deny contains violation if {
	some op in input.plan.operations
	op.operation == "create"
	op.tenant != ""
	not tenant_known(op.tenant)
	violation := {
		"message": sprintf("tenant %s is neither planned nor known", [op.tenant]),
		"reference": op.reference,
	}
}

tenant_known(name) if {
	some known in input.plan.tenants
	known == name
}
`,
	}
}

// updateNoticePolicy reports every update of a live entity. It is disabled
// unless enabled explicitly.
func updateNoticePolicy() Policy {
	return Policy{
		Name:        "confsync.builtin.update-notice",
		Description: "Reports updates of existing entities",
		Severity:    SeverityWarning,
		Enabled:     false,
		Tags:        []string{"audit"},
		Rego: `package confsync.builtin.update_notice

deny contains violation if {
	some op in input.plan.operations
	op.operation == "update"
	violation := {
		"message": "existing entity will be updated",
		"reference": op.reference,
	}
}
`,
	}
}
