package repository

import "strings"

// Scope es un permiso del API de Track. El conjunto es cerrado: un scope que
// no esté acá no existe.
type Scope string

const (
	ScopeTasksRead     Scope = "tasks:read"
	ScopeTasksWrite    Scope = "tasks:write"
	ScopeNotesRead     Scope = "notes:read"
	ScopeNotesWrite    Scope = "notes:write"
	ScopeProjectsRead  Scope = "projects:read"
	ScopeProjectsWrite Scope = "projects:write"
	ScopeProfileRead   Scope = "profile:read"
)

var allScopes = []Scope{
	ScopeTasksRead,
	ScopeTasksWrite,
	ScopeNotesRead,
	ScopeNotesWrite,
	ScopeProjectsRead,
	ScopeProjectsWrite,
	ScopeProfileRead,
}

// scopeDescriptions alimenta la pantalla de consentimiento.
var scopeDescriptions = map[Scope]string{
	ScopeTasksRead:     "Read your tasks",
	ScopeTasksWrite:    "Create and update your tasks",
	ScopeNotesRead:     "Read your notes",
	ScopeNotesWrite:    "Create and update your notes",
	ScopeProjectsRead:  "Read your projects",
	ScopeProjectsWrite: "Create and update your projects",
	ScopeProfileRead:   "Read your profile information",
}

// AllScopes retorna el conjunto completo de scopes, en orden estable.
func AllScopes() []Scope {
	out := make([]Scope, len(allScopes))
	copy(out, allScopes)
	return out
}

// ValidScope indica si s pertenece al conjunto cerrado.
func ValidScope(s Scope) bool {
	_, ok := scopeDescriptions[s]
	return ok
}

// Describe retorna la descripción humana de un scope (para la UI de consent).
func (s Scope) Describe() string {
	if d, ok := scopeDescriptions[s]; ok {
		return d
	}
	return string(s)
}

// ParseScopes parsea un scope string separado por espacios.
//
// Reglas:
//   - tokens desconocidos se descartan en silencio
//   - duplicados se colapsan conservando la primera aparición
//   - si el resultado queda vacío (input vacío o todo desconocido),
//     se otorga el conjunto completo
func ParseScopes(raw string) []Scope {
	seen := make(map[Scope]bool, len(allScopes))
	var out []Scope
	for _, tok := range strings.Fields(raw) {
		s := Scope(tok)
		if !ValidScope(s) || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return AllScopes()
	}
	return out
}

// FormatScopes serializa scopes al formato wire (separados por espacio).
func FormatScopes(scopes []Scope) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}

// HasScope indica si el conjunto contiene el scope dado.
func HasScope(scopes []Scope, want Scope) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
