package testutil

import (
	"context"
	"errors"

	"stem-chat/internal/repository/db"
	"stem-chat/internal/service/llm"
)

// MockDatabase implements db.Database with overridable function
// fields. Unset fields return a "not implemented" error so tests fail
// loudly when they hit an unexpected call.
type MockDatabase struct {
	GetUserByUsernameFunc                  func(username string) (*db.User, error)
	CreateUserFunc                         func(username, email, password string) (*db.User, error)
	CreateConversationFunc                 func(userID, title, model string) (*db.Conversation, error)
	GetConversationFunc                    func(id string) (*db.Conversation, error)
	GetConversationsByUserFunc             func(userID string) ([]db.Conversation, error)
	DeleteConversationFunc                 func(id string) error
	ArchiveConversationFunc                func(id string) error
	AddMessageFunc                         func(conversationID, role, content string, parts []byte) (*db.Message, error)
	GetConversationMessagesFunc            func(conversationID string) ([]llm.Message, error)
	GetConversationMessagesWithDetailsFunc func(conversationID string) ([]db.Message, error)
	AddToolInvocationFunc                  func(messageID, toolName string, parameters, result []byte, executionTime int) (*db.ToolInvocation, error)
	GetToolInvocationsByMessageFunc        func(messageID string) ([]db.ToolInvocation, error)
	CreateVisualizationFunc                func(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error)
	UpdateVisualizationFunc                func(id, title string, data []byte) (*db.Visualization, error)
	GetVisualizationFunc                   func(id string) (*db.Visualization, error)
	CloseFunc                              func() error
}

var errNotImplemented = errors.New("not implemented in mock")

func (m *MockDatabase) GetUserByUsername(username string) (*db.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(username)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateUser(username, email, password string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(username, email, password)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateConversation(userID, title, model string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(userID, title, model)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversation(id string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationsByUser(userID string) ([]db.Conversation, error) {
	if m.GetConversationsByUserFunc != nil {
		return m.GetConversationsByUserFunc(userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) DeleteConversation(id string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(id)
	}
	return errNotImplemented
}

func (m *MockDatabase) ArchiveConversation(id string) error {
	if m.ArchiveConversationFunc != nil {
		return m.ArchiveConversationFunc(id)
	}
	return errNotImplemented
}

func (m *MockDatabase) AddMessage(conversationID, role, content string, parts []byte) (*db.Message, error) {
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(conversationID, role, content, parts)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationMessages(conversationID string) ([]llm.Message, error) {
	if m.GetConversationMessagesFunc != nil {
		return m.GetConversationMessagesFunc(conversationID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationMessagesWithDetails(conversationID string) ([]db.Message, error) {
	if m.GetConversationMessagesWithDetailsFunc != nil {
		return m.GetConversationMessagesWithDetailsFunc(conversationID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) AddToolInvocation(messageID, toolName string, parameters, result []byte, executionTime int) (*db.ToolInvocation, error) {
	if m.AddToolInvocationFunc != nil {
		return m.AddToolInvocationFunc(messageID, toolName, parameters, result, executionTime)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetToolInvocationsByMessage(messageID string) ([]db.ToolInvocation, error) {
	if m.GetToolInvocationsByMessageFunc != nil {
		return m.GetToolInvocationsByMessageFunc(messageID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateVisualization(userID, conversationID, vizType, title, description string, data []byte) (*db.Visualization, error) {
	if m.CreateVisualizationFunc != nil {
		return m.CreateVisualizationFunc(userID, conversationID, vizType, title, description, data)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) UpdateVisualization(id, title string, data []byte) (*db.Visualization, error) {
	if m.UpdateVisualizationFunc != nil {
		return m.UpdateVisualizationFunc(id, title, data)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetVisualization(id string) (*db.Visualization, error) {
	if m.GetVisualizationFunc != nil {
		return m.GetVisualizationFunc(id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockModelClient implements llm.ModelClient by replaying a fixed
// sequence of stream events.
type MockModelClient struct {
	Events []llm.StreamEvent
	Err    error

	// LastRequest records the request passed to the most recent
	// StreamChat call.
	LastRequest *llm.ChatRequest
}

func (m *MockModelClient) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	m.LastRequest = &req
	if m.Err != nil {
		return nil, m.Err
	}
	ch := make(chan llm.StreamEvent, len(m.Events))
	go func() {
		defer close(ch)
		for _, ev := range m.Events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
