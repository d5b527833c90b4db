package services

import (
	"math"
	"time"
)

const degToRad = math.Pi / 180

// declinationDeg returns the solar declination for a day of year, using the
// Cooper approximation.
func declinationDeg(dayOfYear int) float64 {
	return 23.45 * math.Sin(2*math.Pi*float64(284+dayOfYear)/365)
}

// hourAngleDeg converts local solar time to the hour angle, zero at solar
// noon and 15° per hour.
func hourAngleDeg(ts time.Time) float64 {
	solarTime := float64(ts.Hour()) + float64(ts.Minute())/60
	return 15 * (solarTime - 12)
}

// incidenceFactor returns cos θ clamped to [0, 1], where θ is the angle
// between the sun direction and the panel normal. Tilt is from horizontal,
// azimuth from north clockwise (180 = south). This is what differentiates
// configurations during optimization.
func incidenceFactor(latitudeDeg, tiltDeg, azimuthDeg float64, ts time.Time) float64 {
	phi := latitudeDeg * degToRad
	beta := tiltDeg * degToRad
	// Surface azimuth measured from south, positive toward west.
	gamma := (azimuthDeg - 180) * degToRad
	delta := declinationDeg(ts.YearDay()) * degToRad
	omega := hourAngleDeg(ts) * degToRad

	cosTheta := math.Sin(delta)*math.Sin(phi)*math.Cos(beta) -
		math.Sin(delta)*math.Cos(phi)*math.Sin(beta)*math.Cos(gamma) +
		math.Cos(delta)*math.Cos(phi)*math.Cos(beta)*math.Cos(omega) +
		math.Cos(delta)*math.Sin(phi)*math.Sin(beta)*math.Cos(gamma)*math.Cos(omega) +
		math.Cos(delta)*math.Sin(beta)*math.Sin(gamma)*math.Sin(omega)

	if cosTheta < 0 {
		return 0
	}
	if cosTheta > 1 {
		return 1
	}
	return cosTheta
}
