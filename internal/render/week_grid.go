package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/Freeeeeet/tutor_availability/internal/model"
	"github.com/Freeeeeet/tutor_availability/internal/schedule"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth      = 1120
	imageHeight     = 760
	headerHeight    = 60
	leftLabelsWidth = 70
	dayPaddingX     = 6
	totalDaysInWeek = 7

	// Сетка покрывает рабочее окно репетитора
	gridStartHour = 6
	gridEndHour   = 22
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}

	statusColors = map[model.SlotStatus]color.RGBA{
		model.SlotStatusAvailable: {133, 193, 85, 220},
		model.SlotStatusBooked:    {255, 182, 193, 255},
		model.SlotStatusCompleted: {120, 160, 220, 220},
		model.SlotStatusCancelled: {158, 158, 158, 200},
		model.SlotStatusConflict:  {255, 99, 71, 220},
	}
	slotDefaultColor = color.RGBA{220, 220, 220, 200}
	slotTextColor    = color.RGBA{20, 24, 28, 230}
)

// WeekGrid рисует недельную сетку слотов (понедельник - первая колонка)
// и возвращает PNG. weekStart должен быть понедельником; слоты вне недели
// weekStart..weekStart+6 и вне рабочего окна часов не отображаются.
func WeekGrid(slots []*model.TimeSlot, weekStart model.Date) ([]byte, error) {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(bgColor)
	dc.Clear()

	weekEnd := weekStart.AddDays(totalDaysInWeek - 1)
	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDaysInWeek
	gridHeight := float64(imageHeight - headerHeight)
	hourHeight := gridHeight / float64(gridEndHour-gridStartHour)

	// Фон колонок и заголовки дней
	day := weekStart
	for i := 0; i < totalDaysInWeek; i++ {
		x := float64(leftLabelsWidth) + float64(i)*dayWidth

		if i%2 == 0 {
			dc.SetColor(evenDayColor)
		} else {
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(x, headerHeight, dayWidth, gridHeight)
		dc.Fill()

		dc.SetColor(textColor)
		label := fmt.Sprintf("%s %02d.%02d", schedule.UIWeekdayName(day.Weekday())[:3], day.Day, day.Month)
		dc.DrawStringAnchored(label, x+dayWidth/2, headerHeight/2, 0.5, 0.5)

		day = day.NextDay()
	}

	// Линии и подписи часов
	for hour := gridStartHour; hour <= gridEndHour; hour++ {
		y := float64(headerHeight) + float64(hour-gridStartHour)*hourHeight

		dc.SetColor(hourLineColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()

		dc.SetColor(hourLabelColor)
		dc.DrawStringAnchored(schedule.FormatClock(hour*60), leftLabelsWidth/2, y, 0.5, 0.5)
	}

	// Слоты
	for _, slot := range slots {
		if slot.Date.Before(weekStart) || slot.Date.After(weekEnd) {
			continue
		}

		startMinutes, err := schedule.ParseClock(slot.StartTime)
		if err != nil {
			continue
		}
		endMinutes, err := schedule.ParseClock(slot.EndTime)
		if err != nil {
			continue
		}

		column := schedule.ToStorageWeekday(slot.Date.Weekday())
		x := float64(leftLabelsWidth) + float64(column)*dayWidth + dayPaddingX
		y := float64(headerHeight) + (float64(startMinutes)/60.0-gridStartHour)*hourHeight
		h := float64(endMinutes-startMinutes) / 60.0 * hourHeight

		fill, ok := statusColors[slot.Status]
		if !ok {
			fill = slotDefaultColor
		}
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(x, y, dayWidth-2*dayPaddingX, h, 4)
		dc.Fill()

		dc.SetColor(slotTextColor)
		dc.DrawStringAnchored(slot.StartTime+"-"+slot.EndTime, x+(dayWidth-2*dayPaddingX)/2, y+h/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week grid: %w", err)
	}

	return buf.Bytes(), nil
}
