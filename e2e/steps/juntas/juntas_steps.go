package juntas

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	DELETE(path string) error
	GetLastResponseStatus() int
	GetResponseField(field string) (any, error)
	GetResponseList() ([]map[string]any, error)
	Remember(key, value string)
	Recall(key string) string
}

// RegisterSteps registers junta lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &juntaSteps{tc: tc}

	ctx.Step(`^I create a junta with personeria "([^"]*)" starting on "([^"]*)"$`, steps.create)
	ctx.Step(`^I fetch the created junta$`, steps.fetch)
	ctx.Step(`^I check whether personeria "([^"]*)" is available$`, steps.verificarPersoneria)
	ctx.Step(`^I delete the created junta$`, steps.delete)
}

type juntaSteps struct {
	tc TestContext
}

// firstID lists path and returns the id of the first element.
func (s *juntaSteps) firstID(path string) (any, error) {
	if err := s.tc.GET(path, nil); err != nil {
		return nil, err
	}
	list, err := s.tc.GetResponseList()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s returned no items; run the seed command first", path)
	}
	for _, key := range []string{"id", "ID"} {
		if id, ok := list[0][key]; ok {
			return id, nil
		}
	}
	return nil, fmt.Errorf("%s: first item has no id", path)
}

func (s *juntaSteps) create(ctx context.Context, personeria, inicio string) error {
	tipo, err := s.firstID("/tipos-junta")
	if err != nil {
		return err
	}
	municipio, err := s.firstID("/lugares?tipo=Municipio")
	if err != nil {
		return err
	}
	if err := s.tc.POST("/juntas", map[string]any{
		"RazonSocial":           "Junta de Acción Comunal " + personeria,
		"NumPersoneriaJuridica": personeria,
		"FechaCreacion":         "1990-08-15",
		"Zona":                  "rural",
		"FechaInicioPeriodo":    inicio,
		"TipoJuntaID":           tipo,
		"LugarID":               municipio,
	}); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}
	id, err := s.tc.GetResponseField("ID")
	if err != nil {
		return err
	}
	s.tc.Remember("junta", fmt.Sprint(id))
	return nil
}

func (s *juntaSteps) juntaPath() (string, error) {
	id := s.tc.Recall("junta")
	if id == "" {
		return "", fmt.Errorf("no junta was created in this scenario")
	}
	return "/juntas/" + id, nil
}

func (s *juntaSteps) fetch(ctx context.Context) error {
	path, err := s.juntaPath()
	if err != nil {
		return err
	}
	return s.tc.GET(path, nil)
}

func (s *juntaSteps) verificarPersoneria(ctx context.Context, numero string) error {
	return s.tc.GET("/juntas/verificar-personeria?numero="+numero, nil)
}

func (s *juntaSteps) delete(ctx context.Context) error {
	path, err := s.juntaPath()
	if err != nil {
		return err
	}
	return s.tc.DELETE(path)
}
