package command

import "context"

// OpenPage navigates the browser to URL.
type OpenPage struct {
	baseRequest
	URL string
}

func NewOpenPage(ctx context.Context, url string) *OpenPage {
	return &OpenPage{baseRequest: newBaseRequest(ctx), URL: url}
}

func (c *OpenPage) CommandName() string {
	return "OpenPage"
}

// PerformAction runs the action loop for Objective on the current page.
type PerformAction struct {
	baseRequest
	Objective string
}

func NewPerformAction(ctx context.Context, objective string) *PerformAction {
	return &PerformAction{baseRequest: newBaseRequest(ctx), Objective: objective}
}

func (c *PerformAction) CommandName() string {
	return "PerformAction"
}
