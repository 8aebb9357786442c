// Package viewer is the interactive raylib front end: it draws a tracer (or
// a velocity/pressure overlay) as a texture, injects forces from mouse
// drags, and exposes the solver knobs through a raygui panel.
package viewer

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"inkflow/config"
	"inkflow/field"
	"inkflow/scene"
	"inkflow/solver"
)

const panelWidth = 230

// display modes cycled with TAB
const (
	modeDye = iota
	modeSpeed
	modePressure
	modeCount
)

var modeNames = [modeCount]string{"dye", "speed", "pressure"}

// Run opens the window and drives the simulation until close.
func Run(cfg *config.Config, sim *solver.Sim, sc *scene.Scene) {
	width := int32(cfg.Screen.Width + panelWidth)
	height := int32(cfg.Screen.Height)

	rl.InitWindow(width, height, "inkflow")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	ni, nj := sim.Ni, sim.Nj
	// Texture columns follow j, rows follow i.
	img := rl.GenImageColor(nj, ni, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)
	rl.SetTextureFilter(texture, rl.FilterBilinear)

	pixels := make([]color.RGBA, ni*nj)

	dt := cfg.Derived.DT32
	omega := sim.Omega()
	iters := float32(sim.Iters())
	stepsPerFrame := float32(1)

	viewW := float32(cfg.Screen.Width)
	viewH := float32(cfg.Screen.Height)
	cellW := viewW / float32(nj)
	cellH := viewH / float32(ni)

	paused := false
	mode := modeDye
	var tick int

	for !rl.WindowShouldClose() {
		// Input
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyTab) {
			mode = (mode + 1) % modeCount
		}
		if rl.IsKeyPressed(rl.KeyR) {
			sim.Reset()
			sc.Restamp(sim, &cfg.Scene.Noise)
			tick = 0
		}

		// Mouse drag injects momentum along the drag direction.
		if rl.IsMouseButtonDown(rl.MouseLeftButton) {
			pos := rl.GetMousePosition()
			if pos.X < viewW {
				delta := rl.GetMouseDelta()
				i := int(pos.Y / cellH)
				j := int(pos.X / cellW)
				force := solverForce(delta, cellW, cellH)
				sim.AddForceRadius(i, j, force, 3)
				sim.Velocity().UpdateBoundary()
			}
		}

		if !paused {
			for s := 0; s < int(stepsPerFrame); s++ {
				sc.Advance(sim, dt)
				sim.Step(dt)
				tick++
			}
		}

		fillPixels(pixels, sim, mode)
		rl.UpdateTexture(texture, pixels)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(nj), Height: float32(ni)},
			rl.Rectangle{X: 0, Y: 0, Width: viewW, Height: viewH},
			rl.Vector2{},
			0,
			rl.White,
		)

		// Control panel
		px := viewW + 10
		py := float32(10)

		rl.DrawText("inkflow", int32(px), int32(py), 20, rl.DarkGray)
		py += 30
		rl.DrawText(fmt.Sprintf("tick %d  view: %s", tick, modeNames[mode]), int32(px), int32(py), 14, rl.Gray)
		py += 20
		rl.DrawText(fmt.Sprintf("max|div| %.2e", sim.MaxDivergence()), int32(px), int32(py), 14, rl.Gray)
		py += 30

		rl.DrawText("omega", int32(px), int32(py), 14, rl.Gray)
		py += 18
		newOmega := gui.SliderBar(
			rl.Rectangle{X: px, Y: py, Width: panelWidth - 70, Height: 20},
			"0.1", "1.99", omega, 0.1, 1.99,
		)
		rl.DrawText(fmt.Sprintf("%.2f", omega), int32(px+panelWidth-60), int32(py+2), 16, rl.DarkGray)
		if newOmega != omega {
			omega = newOmega
			sim.SetOmega(omega)
		}
		py += 35

		rl.DrawText("iterations", int32(px), int32(py), 14, rl.Gray)
		py += 18
		newIters := gui.SliderBar(
			rl.Rectangle{X: px, Y: py, Width: panelWidth - 70, Height: 20},
			"1", "100", iters, 1, 100,
		)
		rl.DrawText(fmt.Sprintf("%d", int(iters)), int32(px+panelWidth-60), int32(py+2), 16, rl.DarkGray)
		if int(newIters) != int(iters) {
			iters = newIters
			sim.SetIters(int(iters))
		}
		py += 35

		rl.DrawText("steps / frame", int32(px), int32(py), 14, rl.Gray)
		py += 18
		stepsPerFrame = gui.SliderBar(
			rl.Rectangle{X: px, Y: py, Width: panelWidth - 70, Height: 20},
			"1", "10", stepsPerFrame, 1, 10,
		)
		rl.DrawText(fmt.Sprintf("%d", int(stepsPerFrame)), int32(px+panelWidth-60), int32(py+2), 16, rl.DarkGray)
		py += 35

		rl.DrawText("drag: stir   space: pause", int32(px), int32(py), 13, rl.Gray)
		py += 17
		rl.DrawText("tab: view    r: reset", int32(px), int32(py), 13, rl.Gray)

		rl.EndDrawing()
	}
}

// solverForce converts a mouse delta in pixels to a velocity impulse in cell
// units: screen y maps to the row axis i, screen x to the column axis j.
func solverForce(delta rl.Vector2, cellW, cellH float32) field.Vec2 {
	const strength = 2.0
	return field.Vec2{
		X: delta.Y / cellH * strength,
		Y: delta.X / cellW * strength,
	}
}

func fillPixels(pixels []color.RGBA, sim *solver.Sim, mode int) {
	ni, nj := sim.Ni, sim.Nj
	switch mode {
	case modeSpeed:
		vel := sim.Velocity()
		var maxMag float32 = 1e-6
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				v := vel.At(i, j)
				mag := float32(math.Hypot(float64(v.X), float64(v.Y)))
				if mag > maxMag {
					maxMag = mag
				}
			}
		}
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				v := vel.At(i, j)
				mag := float32(math.Hypot(float64(v.X), float64(v.Y)))
				pixels[i*nj+j] = sciColor(mag, 0, maxMag)
			}
		}
	case modePressure:
		p := sim.Pressure()
		minV, maxV := float32(math.MaxFloat32), float32(-math.MaxFloat32)
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				v := float32(p.At(i, j))
				if v < minV {
					minV = v
				}
				if v > maxV {
					maxV = v
				}
			}
		}
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				pixels[i*nj+j] = sciColor(float32(p.At(i, j)), minV, maxV)
			}
		}
	default:
		tracers := sim.Tracers()
		if len(tracers) == 0 {
			for i := range pixels {
				pixels[i] = color.RGBA{R: 245, G: 245, B: 255, A: 255}
			}
			return
		}
		f := tracers[0].F
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				pixels[i*nj+j] = inkColor(float32(f.At(i, j)))
			}
		}
	}
}
