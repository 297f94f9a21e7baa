package auth

// Resource represents a protected resource type
type Resource string

const (
	ResourceInquiries Resource = "inquiries"
	ResourceProfile   Resource = "profile"
)

// Action represents an operation on a resource
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Roles assigned to signed-in users.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// rbacModel is the casbin model: role inheritance with wildcard key matching.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && keyMatch(r.act, p.act)
`

// defaultPolicies grant admins everything and members their own profile.
var defaultPolicies = [][]string{
	{RoleAdmin, "*", "*"},
	{RoleMember, string(ResourceProfile), string(ActionRead)},
}
