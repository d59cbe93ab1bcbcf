package router

// ScrollPolicy decides where the viewport goes after a navigation commits.
type ScrollPolicy interface {
	Decide(req *Request) Position
}

// ScrollPolicyFunc is a function adapter for ScrollPolicy.
type ScrollPolicyFunc func(req *Request) Position

// Decide implements ScrollPolicy.
func (f ScrollPolicyFunc) Decide(req *Request) Position {
	return f(req)
}

// DefaultScrollPolicy restores the saved position of history navigations and
// scrolls everything else to the top.
type DefaultScrollPolicy struct{}

// Decide implements ScrollPolicy.
func (DefaultScrollPolicy) Decide(req *Request) Position {
	if req.SavedScroll != nil {
		return *req.SavedScroll
	}
	return ScrollTop
}
