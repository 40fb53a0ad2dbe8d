package model

// Skill is an agent skill.
type Skill struct {
	Scope
	Name  string  `json:"name" validate:"required"`
	State *string `json:"state,omitempty"`
}

// Ref implements Entity.
func (s *Skill) Ref() Reference {
	return NewReference(KindSkill, s.Tenant, s.Name)
}

// References implements Entity.
func (s *Skill) References() []Reference {
	return UniqueReferences(s.tenantRef(), s.folderRef())
}

// MissingProperties implements Entity.
func (s *Skill) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity.
func (s *Skill) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Skill)
	if !ok {
		return nil
	}
	return folderViolation(s.Folder, l.Folder)
}

// Bare implements Entity.
func (s *Skill) Bare() (Entity, bool) {
	return nil, false
}

// SkillLevel assigns a level of a skill to an agent.
type SkillLevel struct {
	Skill string `json:"skill" validate:"required"`
	Level int    `json:"level"`
}

// AgentInfo holds the agent-specific part of a person.
type AgentInfo struct {
	SkillLevels []SkillLevel `json:"skillLevels,omitempty" validate:"dive"`
	Places      []string     `json:"places,omitempty"`
	Capacity    *string      `json:"capacityRule,omitempty"`
}

// Person is a user of the configuration system, possibly an agent.
type Person struct {
	Scope
	EmployeeID string     `json:"employeeId" validate:"required"`
	UserName   *string    `json:"userName,omitempty"`
	FirstName  *string    `json:"firstName,omitempty"`
	LastName   *string    `json:"lastName,omitempty"`
	Email      *string    `json:"emailAddress,omitempty" validate:"omitempty,email"`
	IsAgent    *bool      `json:"agent,omitempty"`
	AgentInfo  *AgentInfo `json:"agentInfo,omitempty"`
}

// Ref implements Entity.
func (p *Person) Ref() Reference {
	return NewReference(KindPerson, p.Tenant, p.EmployeeID)
}

// References implements Entity.
func (p *Person) References() []Reference {
	refs := []Reference{p.tenantRef(), p.folderRef()}
	if p.AgentInfo != nil {
		for _, level := range p.AgentInfo.SkillLevels {
			refs = append(refs, NewReference(KindSkill, p.Tenant, level.Skill))
		}
		for _, place := range p.AgentInfo.Places {
			refs = append(refs, NewReference(KindPlace, p.Tenant, place))
		}
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (p *Person) MissingProperties(_ CheckContext) []string {
	var missing properties
	missing.addIf(unset(p.UserName), "userName")
	return missing
}

// UnchangeableViolations implements Entity.
func (p *Person) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Person)
	if !ok {
		return nil
	}
	return folderViolation(p.Folder, l.Folder)
}

// Bare implements Entity. Agent information is deferred.
func (p *Person) Bare() (Entity, bool) {
	return &Person{
		Scope:      Scope{Tenant: p.Tenant},
		EmployeeID: p.EmployeeID,
		UserName:   p.UserName,
	}, true
}

// Place is a physical or logical agent workplace.
type Place struct {
	Scope
	Name  string  `json:"name" validate:"required"`
	DNs   []DNKey `json:"dns,omitempty" validate:"dive"`
	State *string `json:"state,omitempty"`
}

// Ref implements Entity.
func (p *Place) Ref() Reference {
	return NewReference(KindPlace, p.Tenant, p.Name)
}

// References implements Entity.
func (p *Place) References() []Reference {
	refs := []Reference{p.tenantRef(), p.folderRef()}
	for _, dn := range p.DNs {
		refs = append(refs, dn.ref(p.Tenant))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (p *Place) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity.
func (p *Place) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*Place)
	if !ok {
		return nil
	}
	return folderViolation(p.Folder, l.Folder)
}

// Bare implements Entity.
func (p *Place) Bare() (Entity, bool) {
	return &Place{Scope: Scope{Tenant: p.Tenant}, Name: p.Name}, true
}

// AgentGroup groups agents for routing and reporting.
type AgentGroup struct {
	Scope
	Name     string   `json:"name" validate:"required"`
	Agents   []string `json:"agents,omitempty"`
	Managers []string `json:"managers,omitempty"`
	RouteDNs []DNKey  `json:"routeDNs,omitempty" validate:"dive"`
	Capacity *string  `json:"capacityTableName,omitempty"`
}

// Ref implements Entity.
func (g *AgentGroup) Ref() Reference {
	return NewReference(KindAgentGroup, g.Tenant, g.Name)
}

// References implements Entity.
func (g *AgentGroup) References() []Reference {
	refs := []Reference{g.tenantRef(), g.folderRef()}
	for _, agent := range g.Agents {
		refs = append(refs, NewReference(KindPerson, g.Tenant, agent))
	}
	for _, manager := range g.Managers {
		refs = append(refs, NewReference(KindPerson, g.Tenant, manager))
	}
	for _, dn := range g.RouteDNs {
		refs = append(refs, dn.ref(g.Tenant))
	}
	return UniqueReferences(refs...)
}

// MissingProperties implements Entity.
func (g *AgentGroup) MissingProperties(_ CheckContext) []string {
	return nil
}

// UnchangeableViolations implements Entity.
func (g *AgentGroup) UnchangeableViolations(live Entity) []string {
	l, ok := live.(*AgentGroup)
	if !ok {
		return nil
	}
	return folderViolation(g.Folder, l.Folder)
}

// Bare implements Entity.
func (g *AgentGroup) Bare() (Entity, bool) {
	return &AgentGroup{Scope: Scope{Tenant: g.Tenant}, Name: g.Name}, true
}
