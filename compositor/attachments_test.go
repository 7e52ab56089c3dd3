package compositor

import (
	"fmt"
	"testing"

	"github.com/oliverbestmann/webgpu/wgpu"
)

// fakeFactory counts attachment lifecycles without touching a device.
type fakeFactory struct {
	created  int
	released int

	// fail the nth creation (1-based), 0 never fails
	failAt int
}

type fakeAttachment struct {
	factory *fakeFactory
	format  wgpu.TextureFormat
	label   string
}

func (f *fakeFactory) NewAttachment(format wgpu.TextureFormat, width, height uint32, label string) (Attachment, error) {
	f.created++

	if f.failAt != 0 && f.created == f.failAt {
		return nil, fmt.Errorf("fake creation failure at %d", f.created)
	}

	return &fakeAttachment{factory: f, format: format, label: label}, nil
}

func (a *fakeAttachment) View() *wgpu.TextureView { return nil }
func (a *fakeAttachment) Texture() *wgpu.Texture  { return nil }

func (a *fakeAttachment) Release() {
	a.factory.released++
}

// attachmentCount is the number of textures one full set holds.
const attachmentCount = 12

func TestAttachmentsUpdate(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAttachments(factory)

	changed, err := a.Update(100, 50)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	if !changed {
		t.Error("first Update() reported no change")
	}

	if factory.created != attachmentCount {
		t.Errorf("created %d attachments, want %d", factory.created, attachmentCount)
	}

	for name, att := range map[string]Attachment{
		"Color": a.Color, "IDLow": a.IDLow, "IDHigh": a.IDHigh,
		"DepthAndOrder": a.DepthAndOrder, "Hilite": a.Hilite,
		"Accumulation": a.Accumulation, "Revealage": a.Revealage,
		"Depth": a.Depth, "IDLowCopy": a.IDLowCopy,
		"IDHighCopy": a.IDHighCopy, "DepthAndOrderCopy": a.DepthAndOrderCopy,
		"Classification": a.Classification,
	} {
		if att == nil {
			t.Errorf("attachment %s not created", name)
		}
	}
}

func TestAttachmentsUpdateSameSizeIsNoop(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAttachments(factory)

	if _, err := a.Update(100, 50); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	changed, err := a.Update(100, 50)
	if err != nil {
		t.Fatalf("second Update() failed: %v", err)
	}

	if changed {
		t.Error("same-size Update() reported a change")
	}

	if factory.created != attachmentCount || factory.released != 0 {
		t.Errorf("same-size Update() touched textures: created %d, released %d",
			factory.created, factory.released)
	}
}

func TestAttachmentsUpdateResize(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAttachments(factory)

	if _, err := a.Update(100, 50); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	changed, err := a.Update(200, 50)
	if err != nil {
		t.Fatalf("resize Update() failed: %v", err)
	}

	if !changed {
		t.Error("resize Update() reported no change")
	}

	if factory.released != attachmentCount {
		t.Errorf("resize released %d attachments, want %d", factory.released, attachmentCount)
	}

	if factory.created != 2*attachmentCount {
		t.Errorf("resize created %d attachments total, want %d", factory.created, 2*attachmentCount)
	}
}

func TestAttachmentsUpdateInvalidSize(t *testing.T) {
	a := NewAttachments(&fakeFactory{})

	if _, err := a.Update(0, 50); err == nil {
		t.Error("zero width accepted")
	}

	if _, err := a.Update(50, 0); err == nil {
		t.Error("zero height accepted")
	}
}

func TestAttachmentsUpdatePartialFailure(t *testing.T) {
	factory := &fakeFactory{failAt: 5}
	a := NewAttachments(factory)

	if _, err := a.Update(100, 50); err == nil {
		t.Fatal("Update() succeeded despite creation failure")
	}

	// the four attachments created before the failure must have been
	// released again
	if factory.released != 4 {
		t.Errorf("partial failure released %d attachments, want 4", factory.released)
	}

	if a.Color != nil {
		t.Error("attachments left behind after failed Update")
	}
}

func TestAttachmentsRelease(t *testing.T) {
	factory := &fakeFactory{}
	a := NewAttachments(factory)

	if _, err := a.Update(100, 50); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	a.Release()

	if factory.released != attachmentCount {
		t.Errorf("Release() released %d attachments, want %d", factory.released, attachmentCount)
	}

	// a released set can be sized again
	if _, err := a.Update(10, 10); err != nil {
		t.Fatalf("Update() after Release() failed: %v", err)
	}
}
