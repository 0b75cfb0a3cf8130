package tester

import (
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/script"
	"github.com/gogpu/vkrun/internal/shader"
)

// CompileShaders compiles every shader of s and places the code at each
// of its stages.
func CompileShaders(c *shader.Compiler, s *script.Script) (pipeline.Shaders, error) {
	var out pipeline.Shaders
	for i := range s.Shaders {
		sh := &s.Shaders[i]
		code, err := c.Compile(&sh.Source)
		if err != nil {
			return out, err
		}
		for _, st := range sh.Stages {
			out[st] = code
		}
	}
	return out, nil
}
