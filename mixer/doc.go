// SPDX-License-Identifier: EPL-2.0

// Package mixer combines the media and announcement streams.
//
// Each work cycle reads one chunk, no larger than the output buffer has
// room for, from every input that has data. Media is scaled by the ducking
// ratio; when both streams are present and their sum would leave the
// 16-bit range, the whole media chunk is scaled once more by the smallest
// factor that avoids it. Announcement samples are never attenuated.
//
// DUCK fades media from the ratio applied at that moment to the target
// over a number of samples in ten geometric sub-steps; a fade of zero
// samples ducks at once. PAUSE_MEDIA stops draining the media input, which
// fills up and stalls the media pipeline until RESUME_MEDIA.
package mixer
