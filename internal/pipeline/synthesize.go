package pipeline

import (
	"math"

	"github.com/gogpu/vkrun/internal/vk"
)

// GraphicsState is the fixed-function state described by a Key. Every
// field is written by exactly one entry of the property table.
type GraphicsState struct {
	InputAssembly vk.InputAssemblyState
	Tessellation  vk.TessellationState
	Rasterization vk.RasterizationState
	ColorBlend    vk.ColorBlendState
	DepthStencil  vk.DepthStencilState
}

// blend returns the single color blend attachment.
func (s *GraphicsState) blend() *vk.ColorBlendAttachmentState {
	return &s.ColorBlend.Attachments[0]
}

// GraphicsState synthesizes the fixed-function state from the key's
// property arrays.
func (k *Key) GraphicsState() GraphicsState {
	s := GraphicsState{
		ColorBlend: vk.ColorBlendState{
			Attachments: make([]vk.ColorBlendAttachmentState, 1),
		},
	}
	for i := range properties {
		p := &properties[i]
		switch p.Type {
		case BoolProperty:
			p.setBool(&s, k.bools[p.Index])
		case IntProperty:
			p.setInt(&s, k.ints[p.Index])
		case FloatProperty:
			p.setFloat(&s, math.Float32frombits(k.floats[p.Index]))
		}
	}
	return s
}

// graphicsCreateInfo assembles the create info for a graphics pipeline.
// The viewport and scissor cover the whole framebuffer.
func graphicsCreateInfo(k *Key, stages []vk.ShaderStageInfo, vertex vk.VertexInputState,
	width, height uint32, tessellation, depthStencil bool) *vk.GraphicsPipelineCreateInfo {
	s := k.GraphicsState()
	info := &vk.GraphicsPipelineCreateInfo{
		Stages:        stages,
		VertexInput:   vertex,
		InputAssembly: s.InputAssembly,
		Viewport: vk.ViewportState{
			Viewports: []vk.Viewport{{Width: float32(width), Height: float32(height)}},
			Scissors:  []vk.Rect2D{{Width: width, Height: height}},
		},
		Rasterization: s.Rasterization,
		Multisample:   vk.MultisampleState{RasterizationSamples: 1},
		ColorBlend:    s.ColorBlend,
	}
	if tessellation {
		info.Tessellation = &s.Tessellation
	}
	if depthStencil {
		info.DepthStencil = &s.DepthStencil
	}
	return info
}
