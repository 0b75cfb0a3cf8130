package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

func TestNewSet(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	wire := DefaultKey()
	mustSet(t, &wire, "polygonMode", "VK_POLYGON_MODE_LINE")
	desc := &SetDesc{
		Keys:    []Key{DefaultKey(), wire, DefaultKey()},
		Shaders: *graphicsShaders(),
		Layout: LayoutDesc{
			Sets: [][]vk.DescriptorSetLayoutBinding{
				{
					{Binding: 0, DescriptorType: vk.DescriptorTypeUniformBuffer},
					{Binding: 1, DescriptorType: vk.DescriptorTypeStorageBuffer},
				},
				{{Binding: 0, DescriptorType: vk.DescriptorTypeStorageBuffer}},
			},
			Stages: vk.ShaderStageAllGraphics,
		},
	}

	s, err := NewSet(c, desc)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	if len(s.Pipelines()) != 3 {
		t.Fatalf("%d pipelines", len(s.Pipelines()))
	}
	if s.Pipeline(0) != s.Pipeline(2) || s.Pipeline(0) == s.Pipeline(1) {
		t.Errorf("pipelines = %v", s.Pipelines())
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 2 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 2", n)
	}
	if len(s.DescriptorSets()) != 2 {
		t.Errorf("%d descriptor sets, want 2", len(s.DescriptorSets()))
	}
	if drv.Live("DescriptorPool") != 1 {
		t.Error("descriptor pool not created")
	}

	// A second set over the same cache reuses everything but the pool.
	s2, err := NewSet(c, desc)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 2 {
		t.Errorf("second set created pipelines (%d calls)", n)
	}
	if n := drv.Calls("CreatePipelineLayout"); n != 1 {
		t.Errorf("CreatePipelineLayout called %d times, want 1", n)
	}

	s.Close()
	s.Close()
	s2.Close()
	if n := drv.Live("DescriptorPool"); n != 0 {
		t.Errorf("%d descriptor pools live after Close", n)
	}
}

func TestNewSetWithoutBuffers(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	s, err := NewSet(c, &SetDesc{Keys: []Key{DefaultKey()}, Shaders: *graphicsShaders()})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer s.Close()

	if len(s.DescriptorSets()) != 0 {
		t.Errorf("%d descriptor sets", len(s.DescriptorSets()))
	}
	if n := drv.Calls("CreateDescriptorPool"); n != 0 {
		t.Errorf("CreateDescriptorPool called %d times", n)
	}
}

func TestNewSetAllocationFailure(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	desc := &SetDesc{
		Keys:    []Key{DefaultKey()},
		Shaders: *graphicsShaders(),
		Layout: LayoutDesc{
			Sets: [][]vk.DescriptorSetLayoutBinding{{{DescriptorType: vk.DescriptorTypeStorageBuffer}}},
		},
	}
	drv.Fail("AllocateDescriptorSets", vk.ErrorOutOfDeviceMemory)

	_, err := NewSet(c, desc)
	var ce *CreateError
	if !errors.As(err, &ce) || ce.Object != "descriptor sets" {
		t.Fatalf("err = %v", err)
	}
	if n := drv.Live("DescriptorPool"); n != 0 {
		t.Errorf("%d descriptor pools leaked", n)
	}

	var nilSet *Set
	nilSet.Close()
}
