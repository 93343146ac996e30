package pipeline

import "context"

// Dirs 是一个项目的目录布局，由持久层负责创建。
type Dirs struct {
	Root      string
	Scripts   string
	Keyframes string
	Clips     string
	Frames    string
	Exports   string
}

// Storage 是编排器消费的持久化契约。
type Storage interface {
	Load(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, p *Project) (*Project, error)
	EnsureDirectories(id string) (Dirs, error)
}
