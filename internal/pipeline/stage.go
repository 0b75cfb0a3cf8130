package pipeline

import "github.com/gogpu/vkrun/internal/vk"

// Stage identifies a shader stage. The values index per-stage arrays.
type Stage int

const (
	StageVertex Stage = iota
	StageTessCtrl
	StageTessEval
	StageGeometry
	StageFragment
	StageCompute
)

// NumStages is the number of shader stages.
const NumStages = 6

var stageNames = [NumStages]string{
	"vertex",
	"tess_ctrl",
	"tess_eval",
	"geometry",
	"fragment",
	"compute",
}

var stageFlags = [NumStages]vk.ShaderStageFlags{
	vk.ShaderStageVertex,
	vk.ShaderStageTessellationControl,
	vk.ShaderStageTessellationEvaluation,
	vk.ShaderStageGeometry,
	vk.ShaderStageFragment,
	vk.ShaderStageCompute,
}

// String returns the stage name as written in scripts.
func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "unknown"
	}
	return stageNames[s]
}

// Flag returns the VkShaderStageFlagBits value for the stage.
func (s Stage) Flag() vk.ShaderStageFlags { return stageFlags[s] }

// StageByName looks up a stage by its script name.
func StageByName(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), true
		}
	}
	return 0, false
}
