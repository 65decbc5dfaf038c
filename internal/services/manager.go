package services

// ServiceManager hands the HTTP layer its services.
type ServiceManager interface {
	Quiz() QuizService
	Player() PlayerService
	Export() ExportService
	// Shutdown destroys every live session.
	Shutdown()
}

type serviceManager struct {
	quiz   QuizService
	player PlayerService
	export ExportService
}

func NewServiceManager(quiz QuizService, player PlayerService, export ExportService) ServiceManager {
	return &serviceManager{quiz: quiz, player: player, export: export}
}

func (m *serviceManager) Quiz() QuizService     { return m.quiz }
func (m *serviceManager) Player() PlayerService { return m.player }
func (m *serviceManager) Export() ExportService { return m.export }

func (m *serviceManager) Shutdown() {
	m.player.Shutdown()
}
