// Package validation implements the object validation pipeline: structural
// checks over struct tags, normalization, ordered semantic (business-rule)
// validators, and the field-error tree returned to callers as data.
package validation

// FieldError describes the violations found on one field. List elements are
// reported as children whose Property is the element index.
type FieldError struct {
	Property    string            `json:"property"`
	Constraints map[string]string `json:"constraints,omitempty"`
	Children    []*FieldError     `json:"children,omitempty"`
}

// Errors is an error tree rooted at the validated object.
type Errors []*FieldError

// Add records a constraint violation at the given field path, creating
// intermediate nodes as needed.
func (e *Errors) Add(path []string, constraint, message string) {
	if len(path) == 0 {
		return
	}
	node := e.child(path[0])
	for _, p := range path[1:] {
		children := Errors(node.Children)
		next := children.child(p)
		node.Children = children
		node = next
	}
	if node.Constraints == nil {
		node.Constraints = make(map[string]string)
	}
	node.Constraints[constraint] = message
}

// Merge folds another tree into this one, combining nodes by property.
func (e *Errors) Merge(other Errors) {
	for _, o := range other {
		node := e.child(o.Property)
		for k, v := range o.Constraints {
			if node.Constraints == nil {
				node.Constraints = make(map[string]string)
			}
			node.Constraints[k] = v
		}
		children := Errors(node.Children)
		children.Merge(Errors(o.Children))
		node.Children = children
	}
}

// child returns the node for property, appending a new one when absent.
func (e *Errors) child(property string) *FieldError {
	for _, fe := range *e {
		if fe.Property == property {
			return fe
		}
	}
	fe := &FieldError{Property: property}
	*e = append(*e, fe)
	return fe
}

// Find walks the tree along the given property path. It returns nil when no
// node exists at that path.
func Find(errs Errors, path ...string) *FieldError {
	current := errs
	var node *FieldError
	for _, p := range path {
		node = nil
		for _, fe := range current {
			if fe.Property == p {
				node = fe
				break
			}
		}
		if node == nil {
			return nil
		}
		current = node.Children
	}
	return node
}
